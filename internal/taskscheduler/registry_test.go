package taskscheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestRegistry_Roundtrip saves and loads registrations.
func TestRegistry_Roundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.yaml")
	registry := NewRegistry(afero.NewOsFs(), path)

	loaded, err := registry.Load()
	require.NoError(t, err)
	require.Empty(t, loaded)

	want := map[string]Options{
		"CHECK_ALARM_TASK": {
			MinimumInterval:      time.Minute,
			PersistAcrossRestart: true,
			RunAfterReboot:       true,
		},
	}

	require.NoError(t, registry.Save(want))

	loaded, err = registry.Load()
	require.NoError(t, err)
	require.Equal(t, want, loaded)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "minimum_interval: 1m0s")

	require.NoError(t, registry.Save(nil))

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRegistry_MemoryFs keeps the registry on the injected file system.
func TestRegistry_MemoryFs(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	registry := NewRegistry(fs, "/state/tasks.yaml")

	require.NoError(t, fs.MkdirAll("/state", 0o700))
	require.NoError(t, registry.Save(map[string]Options{"TASK": {MinimumInterval: time.Minute}}))

	exists, err := afero.Exists(fs, "/state/tasks.yaml")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = os.Stat("/state/tasks.yaml")
	require.ErrorIs(t, err, os.ErrNotExist)

	loaded, err := registry.Load()
	require.NoError(t, err)
	require.Equal(t, time.Minute, loaded["TASK"].MinimumInterval)
}

// TestEntryName derives autostart entry names.
func TestEntryName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "alarm-clock-check-alarm-task", entryName("CHECK_ALARM_TASK"))
}
