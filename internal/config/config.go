package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// Config holds the settings shared by alarm-daemon and alarm-ctl.
type Config struct {
	// ServerAddress is the gRPC address of the alarm daemon.
	ServerAddress string `yaml:"server_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level written by the global logger.
	LogLevel string `yaml:"log_level"`
	// Store selects and configures the durable key-value backend.
	Store Store `yaml:"store"`
	// Watcher selects the trigger strategy and its intervals.
	Watcher Watcher `yaml:"watcher"`
	// Alert holds the fixed alert content and enabled channels.
	Alert Alert `yaml:"alert"`
}

// Store configures where the pending alarm is persisted.
type Store struct {
	// Backend is one of BackendFile, BackendSQLite or BackendRedis.
	Backend string `yaml:"backend"`
	// Path is the state file (file backend) or database file (sqlite backend).
	Path string `yaml:"path"`
	// RedisAddress is the host:port of the redis server (redis backend).
	RedisAddress string `yaml:"redis_addr"`
	// RedisDB is the logical database index (redis backend).
	RedisDB int `yaml:"redis_db"`
}

// Watcher configures how due alarms are detected.
type Watcher struct {
	// Strategy is StrategyForeground or StrategyBackground.
	Strategy string `yaml:"strategy"`
	// PollInterval is the foreground polling period.
	PollInterval time.Duration `yaml:"poll_interval"`
	// MinimumInterval is the background task minimum wake-up period.
	MinimumInterval time.Duration `yaml:"minimum_interval"`
	// PersistAcrossRestart keeps the background registration after the daemon exits.
	PersistAcrossRestart bool `yaml:"persist_across_restart"`
	// RunAfterReboot installs a login autostart entry for the daemon.
	RunAfterReboot bool `yaml:"run_after_reboot"`
	// RegistryFile stores persisted background task registrations.
	RegistryFile string `yaml:"registry_file"`
}

// Alert configures what the alarm says and shows.
type Alert struct {
	// Phrase is spoken by the speech channel.
	Phrase string `yaml:"phrase"`
	// Title is the notification title.
	Title string `yaml:"title"`
	// Body is the notification body.
	Body string `yaml:"body"`
	// Sound asks the notification service to play its alarm sound.
	Sound bool `yaml:"sound"`
	// Chime plays generated beeps through the local audio device.
	Chime bool `yaml:"chime"`
	// Notifier is one of NotifierAuto, NotifierDBus or NotifierLog.
	Notifier string `yaml:"notifier"`
	// SpeechCommand overrides the platform text-to-speech command; the phrase is appended.
	SpeechCommand string `yaml:"speech_command"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-clock-settings.yaml"

	// DefaultStateFilename is the default filename of the file backend.
	DefaultStateFilename = "alarm-clock-state.json"

	// DefaultSQLiteFilename is the default database of the sqlite backend.
	DefaultSQLiteFilename = "alarm-clock.db"

	// DefaultRegistryFilename is the default background task registry.
	DefaultRegistryFilename = "alarm-clock-tasks.yaml"

	// DefaultServerAddress is where the daemon listens when nothing else is set.
	DefaultServerAddress = "127.0.0.1:50061"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval is the foreground polling period.
	DefaultPollInterval = 30 * time.Second

	// DefaultMinimumInterval is the background task minimum wake-up period.
	DefaultMinimumInterval = 60 * time.Second

	// DefaultFilePermissions is the default file permission for files written by the project.
	DefaultFilePermissions = 0o600
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Watcher strategies.
const (
	StrategyForeground = "foreground"
	StrategyBackground = "background"
)

// Notifier kinds.
const (
	NotifierAuto = "auto"
	NotifierDBus = "dbus"
	NotifierLog  = "log"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownBackend is returned for an unsupported store backend.
	errUnknownBackend = errors.New("unknown store backend")
	// errRedisAddressRequired is returned when the redis backend has no address.
	errRedisAddressRequired = errors.New("redis address must be provided")
	// errUnknownStrategy is returned for an unsupported watcher strategy.
	errUnknownStrategy = errors.New("unknown watcher strategy")
	// errUnknownNotifier is returned for an unsupported notifier kind.
	errUnknownNotifier = errors.New("unknown notifier")
	// errUnknownLogLevel is returned when log_level cannot be parsed.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns the out-of-the-box settings:
// a 60 second background task that survives restarts and reboots and says
// "Hi, wake up!".
func Default() *Config {
	return &Config{
		ServerAddress: DefaultServerAddress,
		Timeout:       DefaultTimeout,
		LogLevel:      "info",
		Store: Store{
			Backend: BackendFile,
		},
		Watcher: Watcher{
			Strategy:             StrategyBackground,
			PollInterval:         DefaultPollInterval,
			MinimumInterval:      DefaultMinimumInterval,
			PersistAcrossRestart: true,
			RunAfterReboot:       true,
			RegistryFile:         DefaultRegistryFilename,
		},
		Alert: Alert{
			Phrase:   "Hi, wake up!",
			Title:    "Alarm",
			Body:     "Wake up!",
			Sound:    true,
			Notifier: NotifierAuto,
		},
	}
}

// Load reads configuration from the provided path on top of Default and validates it.
// A missing file named DefaultConfigFilename yields the defaults. Relative
// state and registry paths are resolved against the settings file directory,
// so the daemon finds the same files whatever its working directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	cfg := Default()

	contents, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && filepath.Base(path) == DefaultConfigFilename:
		// Keep defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	resolvePaths(cfg, filepath.Dir(path))

	return cfg, nil
}

// SaveIfMissing writes settings to path unless a file already exists there.
// It reports whether the file was written.
func SaveIfMissing(path string, cfg *Config) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("stat settings: %w", err)
	}

	if err = Save(path, cfg); err != nil {
		return false, err
	}

	return true, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills zero values with defaults.
//
//nolint:cyclop // A flat list of field checks reads better than helpers.
func Validate(settings *Config) error {
	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = "info"
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if err := validateStore(&settings.Store); err != nil {
		return err
	}

	if err := validateWatcher(&settings.Watcher); err != nil {
		return err
	}

	switch settings.Alert.Notifier {
	case "":
		settings.Alert.Notifier = NotifierAuto
	case NotifierAuto, NotifierDBus, NotifierLog:
	default:
		return fmt.Errorf("%w: %q", errUnknownNotifier, settings.Alert.Notifier)
	}

	return nil
}

func validateStore(store *Store) error {
	switch store.Backend {
	case "", BackendFile:
		store.Backend = BackendFile
		if store.Path == "" {
			store.Path = DefaultStateFilename
		}
	case BackendSQLite:
		if store.Path == "" {
			store.Path = DefaultSQLiteFilename
		}
	case BackendRedis:
		if store.RedisAddress == "" {
			return errRedisAddressRequired
		}

		if _, err := net.ResolveTCPAddr("tcp", store.RedisAddress); err != nil {
			return fmt.Errorf("invalid redis address: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, store.Backend)
	}

	return nil
}

func validateWatcher(watcher *Watcher) error {
	switch watcher.Strategy {
	case "":
		watcher.Strategy = StrategyBackground
	case StrategyForeground, StrategyBackground:
	default:
		return fmt.Errorf("%w: %q", errUnknownStrategy, watcher.Strategy)
	}

	if watcher.PollInterval <= 0 {
		watcher.PollInterval = DefaultPollInterval
	}

	if watcher.MinimumInterval <= 0 {
		watcher.MinimumInterval = DefaultMinimumInterval
	}

	if watcher.RegistryFile == "" {
		watcher.RegistryFile = DefaultRegistryFilename
	}

	return nil
}

func resolvePaths(cfg *Config, dir string) {
	if cfg.Store.Backend != BackendRedis {
		cfg.Store.Path = absolute(dir, cfg.Store.Path)
	}

	cfg.Watcher.RegistryFile = absolute(dir, cfg.Watcher.RegistryFile)
}

func absolute(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}
