package notify

import (
	"context"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// LogNotifier writes notifications to the log. It is the last resort on
// machines without a desktop session.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, notification Notification) error {
	logger.WarnKV(
		ctx,
		notification.Title,
		"body", notification.Body,
		"sound", notification.Sound,
		"immediate", notification.Trigger.IsImmediate(),
	)

	return nil
}
