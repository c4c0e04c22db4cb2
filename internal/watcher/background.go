package watcher

import (
	"context"
	"fmt"

	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/taskscheduler"
)

// TaskName identifies the alarm check with the task scheduler.
const TaskName = "CHECK_ALARM_TASK"

// Scheduler is the part of the task scheduler a background task needs.
type Scheduler interface {
	Define(name string, handler taskscheduler.Handler) error
	Register(ctx context.Context, name string, options taskscheduler.Options) error
	Registration(name string) (taskscheduler.Options, bool)
	Run(ctx context.Context) error
}

// BackgroundTask hands the cycle to a task scheduler.
type BackgroundTask struct {
	// scheduler delivers wake-ups.
	scheduler Scheduler
	// cycle is the due-check pass.
	cycle Ticker
	// options are used when no registration was restored.
	options taskscheduler.Options
}

// NewBackgroundTask creates a background task for cycle.
func NewBackgroundTask(scheduler Scheduler, cycle Ticker, options taskscheduler.Options) *BackgroundTask {
	return &BackgroundTask{
		scheduler: scheduler,
		cycle:     cycle,
		options:   options,
	}
}

// Run defines the task, registers it unless a registration was already
// restored, and drives the scheduler until ctx is canceled.
func (b *BackgroundTask) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "background-task")

	if err := b.scheduler.Define(TaskName, b.cycle.Tick); err != nil {
		return fmt.Errorf("define task: %w", err)
	}

	if options, ok := b.scheduler.Registration(TaskName); ok {
		logger.InfoKV(ctx, "Using restored registration", "minimum_interval", options.MinimumInterval.String())
	} else if err := b.scheduler.Register(ctx, TaskName, b.options); err != nil {
		return fmt.Errorf("register task: %w", err)
	}

	return b.scheduler.Run(ctx)
}
