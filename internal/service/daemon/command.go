package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/taskscheduler"
)

// ExecutableName is the daemon binary name without extension.
const ExecutableName = "alarm-daemon"

// Options controls the alarm-daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the alarm daemon and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, ExecutableName)

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger.SetLevelFromString(settings.LogLevel)

	// Determine listen address: CLI argument overrides config.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	if err = ensureSingleInstance(ps.Processes); err != nil {
		return err
	}

	var serviceOptions []Option

	if settings.Watcher.RunAfterReboot {
		exec, execErr := PrepareAutostart(opts.ConfigPath, settings)
		if execErr != nil {
			logger.WarnKV(ctx, "Reboot autostart unavailable", "error", execErr)
		} else {
			serviceOptions = append(serviceOptions, WithAutostarter(taskscheduler.NewLoginAutostart(exec)))
		}
	}

	svc := New(settings, serviceOptions...)
	if err = svc.Init(ctx); err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	defer func() {
		if shutdownErr := svc.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.ErrorKV(ctx, "Shutdown failed", "error", shutdownErr)
		}
	}()

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	return svc.Serve(ctx, lis)
}

// AutostartCommand returns the command line that relaunches the daemon after
// a reboot with the same settings file.
func AutostartCommand(configPath string) ([]string, error) {
	executable, err := taskscheduler.SiblingExecutable(ExecutableName)
	if err != nil {
		return nil, fmt.Errorf("locate daemon executable: %w", err)
	}

	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	return []string{executable, "--config", configPath}, nil
}

// PrepareAutostart returns AutostartCommand for configPath and writes settings
// there first when the file does not exist yet, so the relaunched daemon loads
// the same settings instead of failing on a missing file.
func PrepareAutostart(configPath string, settings *config.Config) ([]string, error) {
	exec, err := AutostartCommand(configPath)
	if err != nil {
		return nil, err
	}

	if _, err = config.SaveIfMissing(exec[len(exec)-1], settings); err != nil {
		return nil, fmt.Errorf("save settings for autostart: %w", err)
	}

	return exec, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise the configured address
// is used as is, so the default stays on loopback.
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "127.0.0.1:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}
