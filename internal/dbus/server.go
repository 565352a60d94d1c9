package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// refreshTimeout bounds a Refresh call so a slow vault cannot stall the bus.
const refreshTimeout = 30 * time.Second

const introspectableInterface = "org.freedesktop.DBus.Introspectable"

// busConn is the part of *dbus.Conn the service uses.
type busConn interface {
	Export(v any, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

func sessionBus() (busConn, error) {
	return dbus.SessionBus()
}

// Service implements the soundboard D-Bus interface on top of a Board.
type Service struct {
	conn    busConn
	connect func() (busConn, error)
	board   Board
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewService creates a new Service.
func NewService(board Board, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		connect: sessionBus,
		board:   board,
		logger:  logger,
	}
}

// Start connects to the session bus and exports the soundboard service.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("service already running")
	}
	s.mu.Unlock()

	conn, err := s.connect()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := s.export(conn); err != nil {
		unexport(conn)
		return err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		unexport(conn)
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		unexport(conn)
		return fmt.Errorf("bus name %s already taken (is another soundboardd running?)", BusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus soundboard service started", "interface", Interface, "path", Path)
	return nil
}

func (s *Service) export(conn busConn) error {
	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: serviceMethods(),
				Signals: serviceSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path, introspectableInterface); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}
	return nil
}

// unexport removes both objects from the shared connection.
func unexport(conn busConn) {
	_ = conn.Export(nil, Path, Interface)
	_ = conn.Export(nil, Path, introspectableInterface)
}

// Stop releases the bus name and unexports the object.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(BusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		unexport(s.conn)
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus soundboard service stopped")
	return nil
}

// Status returns a JSON snapshot of every widget.
// D-Bus method: Status() -> s
func (s *Service) Status() (string, *dbus.Error) {
	data, err := json.Marshal(s.board.Status())
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

// Select binds an asset to a widget.
// D-Bus method: Select(is) -> nothing
func (s *Service) Select(widget int32, path string) *dbus.Error {
	s.logger.Debug("Select called", "widget", widget, "path", path)
	return toDBusError(s.board.Select(int(widget), path))
}

// SelectTrack binds the asset at a 1-based catalog position.
// D-Bus method: SelectTrack(ii) -> nothing
func (s *Service) SelectTrack(widget, track int32) *dbus.Error {
	s.logger.Debug("SelectTrack called", "widget", widget, "track", track)
	return toDBusError(s.board.SelectTrack(int(widget), int(track)))
}

// Toggle starts or stops a widget.
// D-Bus method: Toggle(i) -> nothing
func (s *Service) Toggle(widget int32) *dbus.Error {
	s.logger.Debug("Toggle called", "widget", widget)
	return toDBusError(s.board.Toggle(int(widget)))
}

// SetVolume sets a widget's volume.
// D-Bus method: SetVolume(id) -> nothing
func (s *Service) SetVolume(widget int32, volume float64) *dbus.Error {
	s.logger.Debug("SetVolume called", "widget", widget, "volume", volume)
	return toDBusError(s.board.SetVolume(int(widget), volume))
}

// StopAll stops every widget.
// D-Bus method: StopAll() -> nothing
func (s *Service) StopAll() *dbus.Error {
	s.logger.Debug("StopAll called")
	return toDBusError(s.board.StopAll())
}

// Refresh rescans every widget's folder.
// D-Bus method: Refresh() -> nothing
func (s *Service) Refresh() *dbus.Error {
	s.logger.Debug("Refresh called")
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	return toDBusError(s.board.Refresh(ctx))
}

// serviceMethods returns the D-Bus method introspection data.
func serviceMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "status", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Select",
			Args: []introspect.Arg{
				{Name: "widget", Type: "i", Direction: "in"},
				{Name: "path", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "SelectTrack",
			Args: []introspect.Arg{
				{Name: "widget", Type: "i", Direction: "in"},
				{Name: "track", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "Toggle",
			Args: []introspect.Arg{
				{Name: "widget", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "SetVolume",
			Args: []introspect.Arg{
				{Name: "widget", Type: "i", Direction: "in"},
				{Name: "volume", Type: "d", Direction: "in"},
			},
		},
		{Name: "StopAll"},
		{Name: "Refresh"},
	}
}

// serviceSignals returns the D-Bus signal introspection data.
func serviceSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: SignalStateChanged,
			Args: []introspect.Arg{
				{Name: "widget", Type: "i"},
				{Name: "state", Type: "s"},
				{Name: "selected", Type: "s"},
				{Name: "playing", Type: "b"},
				{Name: "error", Type: "s"},
			},
		},
	}
}
