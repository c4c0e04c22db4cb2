package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	settings := new(Config)

	err := Validate(settings)
	require.Error(t, err)

	// Bad socket.
	settings = &Config{
		ServerAddress: "bad:address",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Minimal settings get defaults.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
	}

	err = Validate(settings)
	require.NoError(t, err)
	require.Equal(t, BackendFile, settings.Store.Backend)
	require.Equal(t, DefaultStateFilename, settings.Store.Path)
	require.Equal(t, StrategyBackground, settings.Watcher.Strategy)
	require.Equal(t, DefaultPollInterval, settings.Watcher.PollInterval)
	require.Equal(t, DefaultMinimumInterval, settings.Watcher.MinimumInterval)
	require.Equal(t, NotifierAuto, settings.Alert.Notifier)
	require.Equal(t, DefaultTimeout, settings.Timeout)
}

// TestValidate_RejectsUnknownValues covers enumerated fields.
func TestValidate_RejectsUnknownValues(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"backend":   func(c *Config) { c.Store.Backend = "etcd" },
		"redis":     func(c *Config) { c.Store.Backend = BackendRedis },
		"strategy":  func(c *Config) { c.Watcher.Strategy = "cron" },
		"notifier":  func(c *Config) { c.Alert.Notifier = "pager" },
		"log level": func(c *Config) { c.LogLevel = "verbose" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			settings := Default()
			mutate(settings)

			require.Error(t, Validate(settings))
		})
	}
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := Default()
	settings.ServerAddress = "127.0.0.1:50051"
	settings.Store.Backend = BackendSQLite
	settings.Watcher.Strategy = StrategyForeground
	settings.Watcher.PollInterval = 10 * time.Second

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, BackendSQLite, loaded.Store.Backend)
	require.Equal(t, filepath.Join(dir, DefaultSQLiteFilename), loaded.Store.Path)
	require.Equal(t, StrategyForeground, loaded.Watcher.Strategy)
	require.Equal(t, 10*time.Second, loaded.Watcher.PollInterval)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_PartialFileKeepsDefaults verifies that omitted keys keep their default values.
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := "server_addr: 127.0.0.1:6000\nwatcher:\n  strategy: foreground\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StrategyForeground, loaded.Watcher.Strategy)
	require.True(t, loaded.Watcher.PersistAcrossRestart)
	require.True(t, loaded.Watcher.RunAfterReboot)
	require.True(t, loaded.Alert.Sound)
	require.Equal(t, "Hi, wake up!", loaded.Alert.Phrase)
}

// TestLoad_MissingExplicitFile ensures a missing non-default path is an error.
func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestLoad_ResolvesPathsAgainstSettingsDir anchors relative state paths to the settings file.
func TestLoad_ResolvesPathsAgainstSettingsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	contents := "store:\n  path: data/state.json\nwatcher:\n  registry_file: /var/lib/alarm/tasks.yaml\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "data", "state.json"), loaded.Store.Path)
	require.Equal(t, "/var/lib/alarm/tasks.yaml", loaded.Watcher.RegistryFile)
}

// TestLoad_MissingDefaultFileInAnyDir yields defaults anchored to that directory.
func TestLoad_MissingDefaultFileInAnyDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	loaded, err := Load(filepath.Join(dir, DefaultConfigFilename))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, DefaultStateFilename), loaded.Store.Path)
	require.Equal(t, filepath.Join(dir, DefaultRegistryFilename), loaded.Watcher.RegistryFile)
}

// TestSaveIfMissing writes once and keeps an existing file.
func TestSaveIfMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := Default()
	written, err := SaveIfMissing(path, settings)
	require.NoError(t, err)
	require.True(t, written)

	settings.ServerAddress = "127.0.0.1:7000"
	written, err = SaveIfMissing(path, settings)
	require.NoError(t, err)
	require.False(t, written)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultServerAddress, loaded.ServerAddress)
}
