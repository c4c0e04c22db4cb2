package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestSetLevelFromString checks that only known level names change the global level.
func TestSetLevelFromString(t *testing.T) { //nolint:paralleltest // Mutates the global level.
	previous := Level()
	t.Cleanup(func() { SetLevel(previous) })

	require.True(t, SetLevelFromString("debug"))
	require.Equal(t, zapcore.DebugLevel, Level())

	require.False(t, SetLevelFromString("verbose"))
	require.Equal(t, zapcore.DebugLevel, Level())
}

// TestNewTo writes named console entries to the provided writer.
func TestNewTo(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	log := NewTo(&out, zapcore.InfoLevel).Named("alarm-ctl")
	log.Debugw("hidden")
	log.Infow("Alarm set", "trigger_at", "07:30")
	require.NoError(t, log.Sync())

	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "alarm-ctl")
	require.Contains(t, out.String(), "Alarm set")
	require.Contains(t, out.String(), `{"trigger_at": "07:30"}`)
}
