package dbus

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")
)

// Notice is a desktop notification sent through the session's notification daemon.
type Notice struct {
	AppName string
	Summary string
	Body    string
	Icon    string
	Urgency byte // 0 low, 1 normal, 2 critical
	Timeout time.Duration
}

// SendNotice delivers a notice via org.freedesktop.Notifications.Notify.
func SendNotice(n Notice) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	hints := map[string]dbus.Variant{
		"urgency":   dbus.MakeVariant(n.Urgency),
		"transient": dbus.MakeVariant(true),
	}

	call := conn.Object(notificationsName, notificationsPath).Call(
		notificationsName+".Notify", 0,
		n.AppName,
		uint32(0),
		n.Icon,
		n.Summary,
		n.Body,
		[]string{},
		hints,
		int32(n.Timeout.Milliseconds()),
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}
