package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

var (
	// errTimeRequired is returned when set gets neither a time nor a duration.
	errTimeRequired = errors.New("alarm time must be provided")
	// errTimeAndDuration is returned when set gets both a time and a duration.
	errTimeAndDuration = errors.New("use either a time or --in, not both")
)

// AlarmClient is the daemon API used by the controller.
type AlarmClient interface {
	SetAlarm(ctx context.Context, triggerAt time.Time) (time.Time, error)
	GetAlarm(ctx context.Context) (time.Time, bool, error)
	ClearAlarm(ctx context.Context) error
	RunCheck(ctx context.Context) (domain.FetchResult, error)
}

// Controller runs user commands against the daemon and prints the outcome.
type Controller struct {
	// client talks to the daemon.
	client AlarmClient
	// out receives user-facing output.
	out io.Writer
	// now returns the current wall-clock time.
	now func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller writing to out.
func NewController(client AlarmClient, out io.Writer, opts ...ControllerOption) *Controller {
	c := &Controller{
		client: client,
		out:    out,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Set arms the alarm for a time of day or RFC 3339 timestamp, or for
// now plus in. Non-future times are rejected before reaching the daemon.
func (c *Controller) Set(ctx context.Context, when string, in time.Duration) error {
	now := c.now()

	triggerAt, err := ResolveTime(now, when, in)
	if err != nil {
		return err
	}

	stored, err := c.client.SetAlarm(ctx, triggerAt)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarm set", "trigger_at", stored.Format(time.RFC3339))

	_, err = fmt.Fprintf(c.out, "Alarm set for %s (%s)\n", formatTime(stored), formatUntil(now, stored))

	return err
}

// Get prints the pending alarm.
func (c *Controller) Get(ctx context.Context) error {
	triggerAt, ok, err := c.client.GetAlarm(ctx)
	if err != nil {
		return err
	}

	if !ok {
		_, err = fmt.Fprintln(c.out, "No alarm set")

		return err
	}

	_, err = fmt.Fprintf(c.out, "Alarm set for %s (%s)\n", formatTime(triggerAt), formatUntil(c.now(), triggerAt))

	return err
}

// Clear disarms the alarm.
func (c *Controller) Clear(ctx context.Context) error {
	if err := c.client.ClearAlarm(ctx); err != nil {
		return err
	}

	_, err := fmt.Fprintln(c.out, "Alarm cleared")

	return err
}

// Check forces one watcher cycle on the daemon and prints its result.
func (c *Controller) Check(ctx context.Context) error {
	result, err := c.client.RunCheck(ctx)
	if err != nil {
		return err
	}

	message := "Alarm not due"

	switch result {
	case domain.NewData:
		message = "Alarm fired"
	case domain.Failed:
		message = "Check failed, see daemon logs"
	case domain.NoData:
	}

	_, err = fmt.Fprintf(c.out, "%s (%s)\n", message, result)

	return err
}

func formatTime(t time.Time) string {
	return t.Local().Format("Mon 2 Jan 15:04:05 MST")
}

func formatUntil(now, triggerAt time.Time) string {
	until := triggerAt.Sub(now).Round(time.Second)
	if until <= 0 {
		return "due"
	}

	return "in " + until.String()
}
