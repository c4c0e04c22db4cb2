package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/taskscheduler"
)

// Strategy drives cycles until its context is canceled.
type Strategy interface {
	Run(ctx context.Context) error
}

// errUnknownStrategy is returned for a strategy name New does not know.
var errUnknownStrategy = errors.New("unknown watcher strategy")

// New selects the strategy configured in settings. scheduler is only used by
// the background strategy.
//
//nolint:ireturn // The strategy is chosen at runtime.
func New(settings config.Watcher, cycle Ticker, scheduler Scheduler) (Strategy, error) {
	switch settings.Strategy {
	case config.StrategyForeground:
		return NewPoller(cycle, settings.PollInterval), nil
	case config.StrategyBackground:
		return NewBackgroundTask(scheduler, cycle, TaskOptions(settings)), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownStrategy, settings.Strategy)
	}
}

// TaskOptions converts watcher settings into scheduler registration options.
func TaskOptions(settings config.Watcher) taskscheduler.Options {
	return taskscheduler.Options{
		MinimumInterval:      settings.MinimumInterval,
		PersistAcrossRestart: settings.PersistAcrossRestart,
		RunAfterReboot:       settings.RunAfterReboot,
	}
}

// Interval returns the detection precision bound of the configured strategy.
func Interval(settings config.Watcher) time.Duration {
	if settings.Strategy == config.StrategyForeground {
		return settings.PollInterval
	}

	return settings.MinimumInterval
}
