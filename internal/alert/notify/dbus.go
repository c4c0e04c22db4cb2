package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/oshokin/alarm-clock/internal/logger"
)

const (
	notificationsDestination = "org.freedesktop.Notifications"
	notificationsPath        = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod             = notificationsDestination + ".Notify"

	// alarmSoundName is the freedesktop sound theme name for an elapsed alarm.
	alarmSoundName = "alarm-clock-elapsed"
	// criticalUrgency keeps the notification on screen until dismissed.
	criticalUrgency byte = 2
	// defaultExpiration lets the server decide how long to show the notification.
	defaultExpiration int32 = -1
)

// DBusNotifier shows notifications through the freedesktop notification
// service on the session bus.
type DBusNotifier struct {
	// appName identifies the sender to the notification server.
	appName string
	// icon is a freedesktop icon name.
	icon string
	// connect opens the session bus; replaced in tests.
	connect func() (*dbus.Conn, error)
}

// NewDBusNotifier creates a notifier that reports as appName.
func NewDBusNotifier(appName string) *DBusNotifier {
	return &DBusNotifier{
		appName: appName,
		icon:    "alarm-symbolic",
		connect: func() (*dbus.Conn, error) {
			return dbus.ConnectSessionBus()
		},
	}
}

// Notify implements Notifier. Only immediate triggers are supported.
func (n *DBusNotifier) Notify(ctx context.Context, notification Notification) error {
	if !notification.Trigger.IsImmediate() {
		return ErrDeferredTrigger
	}

	conn, err := n.connect()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	defer func() {
		_ = conn.Close()
	}()

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(criticalUrgency),
	}

	if notification.Sound {
		hints["sound-name"] = dbus.MakeVariant(alarmSoundName)
	}

	call := conn.Object(notificationsDestination, notificationsPath).CallWithContext(
		ctx,
		notifyMethod,
		0,
		n.appName,
		uint32(0),
		n.icon,
		notification.Title,
		notification.Body,
		[]string{},
		hints,
		defaultExpiration,
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}

	var id uint32
	if err = call.Store(&id); err != nil {
		return fmt.Errorf("read notification id: %w", err)
	}

	logger.DebugKV(ctx, "Notification shown", "notification_id", id)

	return nil
}
