package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/ctl"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the daemon address from the configuration file.
	serverAddress string

	// rootCmd represents the base command for controlling the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "alarm-ctl",
		Short: "Set, show and clear the alarm.",
		Long: `Controls the alarm clock daemon.

Only one alarm can be pending: setting a new one replaces the previous one.
Times of day refer to today and must be in the future.`,
		SilenceUsage: true,
	}
)

// Execute runs the alarm-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options collects the global flags.
func options() *ctl.Options {
	return &ctl.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
	}
}

// runWithController wires a daemon command into cobra.
func runWithController(action func(context.Context, *ctl.Controller) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return ctl.Run(ctx, options(), action)
	}
}

func newSetCommand() *cobra.Command {
	var in time.Duration

	command := &cobra.Command{
		Use:   "set [HH:MM | 3:04PM | RFC3339]",
		Short: "Set the alarm.",
		Long: `Sets the alarm for a time of day today, an RFC 3339 timestamp, or a
duration from now given with --in (e.g. --in 25m).`,
		Example: "  alarm-ctl set 07:30\n  alarm-ctl set --in 90s",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			var when string
			if len(args) > 0 {
				when = args[0]
			}

			return runWithController(func(ctx context.Context, c *ctl.Controller) error {
				return c.Set(ctx, when, in)
			})(command, args)
		},
	}

	command.Flags().DurationVar(&in, "in", 0, "set the alarm this long from now (e.g. 25m, 1h30m)")

	return command
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "daemon address, overrides the configuration file")

	rootCmd.AddCommand(
		newSetCommand(),
		&cobra.Command{
			Use:   "get",
			Short: "Show the pending alarm.",
			Args:  cobra.NoArgs,
			RunE: runWithController(func(ctx context.Context, c *ctl.Controller) error {
				return c.Get(ctx)
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Clear the pending alarm.",
			Args:  cobra.NoArgs,
			RunE: runWithController(func(ctx context.Context, c *ctl.Controller) error {
				return c.Clear(ctx)
			}),
		},
		&cobra.Command{
			Use:   "check",
			Short: "Force the daemon to check the alarm now.",
			Args:  cobra.NoArgs,
			RunE: runWithController(func(ctx context.Context, c *ctl.Controller) error {
				return c.Check(ctx)
			}),
		},
		&cobra.Command{
			Use:   "register",
			Short: "Register the background alarm check and its reboot autostart entry.",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return ctl.Register(context.Background(), options())
			},
		},
		&cobra.Command{
			Use:   "unregister",
			Short: "Remove the background alarm check and its reboot autostart entry.",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return ctl.Unregister(context.Background(), options())
			},
		},
	)
}
