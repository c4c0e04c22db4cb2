package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestWithMinimumLevel drops entries below the floor, including on derived loggers.
func TestWithMinimumLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core, WithMinimumLevel(zapcore.WarnLevel)).Sugar()

	log.Info("routine")
	log.Warn("attention")
	log.With("task", "check").Debug("hidden")
	log.With("task", "check").Error("broken")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	require.Equal(t, "attention", entries[0].Message)
	require.Equal(t, "broken", entries[1].Message)
	require.Equal(t, "check", entries[1].ContextMap()["task"])
}
