// Package notify delivers alarm notifications to the desktop.
package notify

import (
	"context"
	"errors"
	"time"
)

// Trigger says when a notification should be shown.
type Trigger struct {
	// at is the deferred delivery time; zero means immediately.
	at time.Time
}

// Immediate returns a trigger for instant delivery.
func Immediate() Trigger {
	return Trigger{}
}

// At returns a trigger for delivery at t.
func At(t time.Time) Trigger {
	return Trigger{at: t}
}

// IsImmediate reports whether the notification is delivered right away.
func (t Trigger) IsImmediate() bool {
	return t.at.IsZero()
}

// Time returns the deferred delivery time, zero for immediate triggers.
func (t Trigger) Time() time.Time {
	return t.at
}

// Notification is a request to the notification service.
type Notification struct {
	// Title is the summary line.
	Title string
	// Body is the detail text.
	Body string
	// Sound asks the service to play its alarm sound.
	Sound bool
	// Trigger is the delivery time.
	Trigger Trigger
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// ErrDeferredTrigger is returned by notifiers that can only deliver immediately.
var ErrDeferredTrigger = errors.New("deferred notification triggers are not supported")

// Chain tries notifiers in order and stops at the first one that succeeds.
type Chain []Notifier

// Notify implements Notifier. All failures are joined when no notifier succeeds.
func (c Chain) Notify(ctx context.Context, notification Notification) error {
	errs := make([]error, 0, len(c))

	for _, notifier := range c {
		err := notifier.Notify(ctx, notification)
		if err == nil {
			return nil
		}

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
