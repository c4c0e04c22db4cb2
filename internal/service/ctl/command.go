package ctl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/service/daemon"
	"github.com/oshokin/alarm-clock/internal/taskscheduler"
	"github.com/oshokin/alarm-clock/internal/watcher"
)

// Options configures alarm-ctl.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
}

// Run loads settings, connects to the daemon and runs action with a
// controller that prints to stdout.
func Run(ctx context.Context, opts *Options, action func(context.Context, *Controller) error) error {
	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-ctl")

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to alarm daemon", "server_address", serverAddress)

	return action(ctx, NewController(client, os.Stdout))
}

// Register installs the background alarm check so the daemon picks it up on
// its next start, and enables the reboot autostart entry when configured.
func Register(ctx context.Context, opts *Options) error {
	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-ctl")

	exec, err := daemon.PrepareAutostart(opts.ConfigPath, cfg)
	if err != nil {
		return err
	}

	return registerTask(ctx, newScheduler(cfg, exec), cfg.Watcher, os.Stdout)
}

// Unregister removes the background alarm check and its autostart entry.
func Unregister(ctx context.Context, opts *Options) error {
	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "alarm-ctl")

	exec, err := daemon.AutostartCommand(opts.ConfigPath)
	if err != nil {
		return err
	}

	return unregisterTask(ctx, newScheduler(cfg, exec), os.Stdout)
}

func registerTask(
	ctx context.Context,
	scheduler *taskscheduler.Scheduler,
	settings config.Watcher,
	out io.Writer,
) error {
	if err := scheduler.Restore(ctx); err != nil {
		return err
	}

	options := watcher.TaskOptions(settings)
	if err := scheduler.Register(ctx, watcher.TaskName, options); err != nil {
		return fmt.Errorf("register %s: %w", watcher.TaskName, err)
	}

	_, err := fmt.Fprintf(
		out,
		"Registered %s every %s (persist across restart: %t, run after reboot: %t)\n",
		watcher.TaskName,
		options.MinimumInterval,
		options.PersistAcrossRestart,
		options.RunAfterReboot,
	)

	return err
}

func unregisterTask(ctx context.Context, scheduler *taskscheduler.Scheduler, out io.Writer) error {
	if err := scheduler.Restore(ctx); err != nil {
		return err
	}

	if err := scheduler.Unregister(ctx, watcher.TaskName); err != nil {
		return fmt.Errorf("unregister %s: %w", watcher.TaskName, err)
	}

	_, err := fmt.Fprintf(out, "Unregistered %s\n", watcher.TaskName)

	return err
}

func newScheduler(cfg *config.Config, exec []string) *taskscheduler.Scheduler {
	return taskscheduler.New(
		taskscheduler.WithRegistry(taskscheduler.NewRegistry(afero.NewOsFs(), cfg.Watcher.RegistryFile)),
		taskscheduler.WithAutostarter(taskscheduler.NewLoginAutostart(exec)),
	)
}

func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	logger.SetLevelFromString(cfg.LogLevel)

	// Results are printed for the user; only problems are logged unless debugging.
	if logger.Level() > zapcore.DebugLevel {
		logger.SetLogger(logger.NewTo(os.Stderr, nil, logger.WithMinimumLevel(zapcore.WarnLevel)))
	}

	return cfg, nil
}
