// Package notify sends desktop notifications over the D-Bus session bus
// using the org.freedesktop.Notifications interface.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/mullvad-ping/common"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyCall = busName + ".Notify"

	expireTimeout = int32(8000) // ms
)

// Type represents the kind of notification.
type Type int

const (
	TypeInfo Type = iota
	TypeSuccess
	TypeWarning
	TypeError
)

// Notification is a single desktop notification.
type Notification struct {
	Title   string
	Message string
	Type    Type
	Icon    string
}

// icon returns the notification icon, derived from the type when unset.
func (n Notification) icon() string {
	if n.Icon != "" {
		return n.Icon
	}
	switch n.Type {
	case TypeWarning:
		return "dialog-warning"
	case TypeError:
		return "dialog-error"
	default:
		return "network-vpn"
	}
}

// urgency maps the type onto the freedesktop urgency hint:
// 0 low, 1 normal, 2 critical.
func (n Notification) urgency() byte {
	switch n.Type {
	case TypeError:
		return 2
	case TypeWarning:
		return 1
	default:
		return 0
	}
}

// caller is the part of dbus.BusObject used here.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DBusNotifier delivers notifications to the session notification daemon.
type DBusNotifier struct {
	conn *dbus.Conn
	obj  caller
}

// NewDBusNotifier connects to the session bus.
func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBusNotifier{conn: conn, obj: conn.Object(busName, objectPath)}, nil
}

// Send shows n and returns the id the daemon assigned to it.
func (d *DBusNotifier) Send(n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(n.urgency()),
	}

	call := d.obj.Call(notifyCall, 0,
		common.AppName, // app_name
		uint32(0),      // replaces_id
		n.icon(),
		n.Title,
		n.Message,
		[]string{}, // actions
		hints,
		expireTimeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("notification failed: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notification failed: %w", err)
	}
	return id, nil
}

// Notify implements common.Notifier.
func (d *DBusNotifier) Notify(title, message string) error {
	_, err := d.Send(Notification{Title: title, Message: message, Type: TypeSuccess})
	return err
}

// Close releases the bus connection.
func (d *DBusNotifier) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

var _ common.Notifier = (*DBusNotifier)(nil)

// FastestRelay announces the result of a run.
func FastestRelay(n common.Notifier, hostname, location string, latencyMs float64) {
	message := fmt.Sprintf("%s (%s) answered in %.1f ms", hostname, location, latencyMs)
	if err := n.Notify("Fastest Mullvad relay", message); err != nil {
		common.LogWarn("Could not send notification: %v", err)
	}
}
