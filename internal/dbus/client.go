package dbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/localsoundboard/internal/soundboard"
)

// Client calls a running soundboard daemon over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, Path),
	}, nil
}

func (c *Client) call(method string, args ...any) *dbus.Call {
	return c.obj.Call(Interface+"."+method, 0, args...)
}

// Status returns every widget's snapshot.
func (c *Client) Status() ([]soundboard.WidgetStatus, error) {
	var raw string
	if err := c.call("Status").Store(&raw); err != nil {
		return nil, fromDBusError(err)
	}

	var status []soundboard.WidgetStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return status, nil
}

// Select binds the asset at path to a widget; an empty path clears it.
func (c *Client) Select(widget int, path string) error {
	return fromDBusError(c.call("Select", int32(widget), path).Err)
}

// SelectTrack binds the asset at a 1-based catalog position.
func (c *Client) SelectTrack(widget, track int) error {
	return fromDBusError(c.call("SelectTrack", int32(widget), int32(track)).Err)
}

// Toggle starts or stops a widget.
func (c *Client) Toggle(widget int) error {
	return fromDBusError(c.call("Toggle", int32(widget)).Err)
}

// SetVolume sets a widget's volume.
func (c *Client) SetVolume(widget int, volume float64) error {
	return fromDBusError(c.call("SetVolume", int32(widget), volume).Err)
}

// StopAll stops every widget.
func (c *Client) StopAll() error {
	return fromDBusError(c.call("StopAll").Err)
}

// Refresh asks the daemon to rescan every folder.
func (c *Client) Refresh() error {
	return fromDBusError(c.call("Refresh").Err)
}

// Watch calls fn for every StateChanged signal until ctx is done.
func (c *Client) Watch(ctx context.Context, fn func(StateChanged)) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember(SignalStateChanged),
	}
	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}
	defer func() { _ = c.conn.RemoveMatchSignal(opts...) }()

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			if sig.Path != Path {
				continue
			}
			sc, err := parseStateChanged(sig)
			if err != nil {
				continue
			}
			fn(sc)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
