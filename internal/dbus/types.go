package dbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/player"
	"github.com/jmylchreest/localsoundboard/internal/soundboard"
)

const (
	// Interface is the soundboard interface name.
	Interface = "io.github.jmylchreest.LocalSoundboard"
	// Path is the soundboard object path.
	Path = dbus.ObjectPath("/io/github/jmylchreest/LocalSoundboard")
	// BusName is the bus name to claim.
	BusName = "io.github.jmylchreest.LocalSoundboard"

	// SignalStateChanged is the member name of the state change signal.
	SignalStateChanged = "StateChanged"
)

// D-Bus error names returned by the service.
const (
	ErrorNoSuchWidget   = Interface + ".Error.NoSuchWidget"
	ErrorAssetNotFound  = Interface + ".Error.AssetNotFound"
	ErrorFolderNotFound = Interface + ".Error.FolderNotFound"
	ErrorPlayback       = Interface + ".Error.PlaybackFailed"
	ErrorFailed         = Interface + ".Error.Failed"

	errorServiceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"
	errorNameHasNoOwner = "org.freedesktop.DBus.Error.NameHasNoOwner"
)

// Board is the soundboard surface the service exposes.
type Board interface {
	Status() []soundboard.WidgetStatus
	Select(index int, path string) error
	SelectTrack(index, track int) error
	Toggle(index int) error
	SetVolume(index int, v float64) error
	StopAll() error
	Refresh(ctx context.Context) error
}

// StateChanged is the decoded StateChanged signal.
type StateChanged struct {
	Widget   int
	State    string
	Selected string
	Playing  bool
	Error    string
}

// stateChangedArgs flattens a widget change into signal arguments.
func stateChangedArgs(change soundboard.WidgetChange) []any {
	selected := ""
	if change.Selected != nil {
		selected = change.Selected.Path
	}
	errMsg := ""
	if change.Err != nil {
		errMsg = change.Err.Error()
	}
	return []any{int32(change.Index), change.State.String(), selected, change.Playing, errMsg}
}

// parseStateChanged decodes a StateChanged signal body.
func parseStateChanged(sig *dbus.Signal) (StateChanged, error) {
	var sc StateChanged
	if sig.Name != Interface+"."+SignalStateChanged {
		return sc, fmt.Errorf("unexpected signal %s", sig.Name)
	}
	if len(sig.Body) != 5 {
		return sc, fmt.Errorf("StateChanged: expected 5 arguments, got %d", len(sig.Body))
	}

	widget, ok1 := sig.Body[0].(int32)
	state, ok2 := sig.Body[1].(string)
	selected, ok3 := sig.Body[2].(string)
	playing, ok4 := sig.Body[3].(bool)
	errMsg, ok5 := sig.Body[4].(string)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return sc, fmt.Errorf("StateChanged: unexpected argument types")
	}

	return StateChanged{
		Widget:   int(widget),
		State:    state,
		Selected: selected,
		Playing:  playing,
		Error:    errMsg,
	}, nil
}

// toDBusError maps board errors onto D-Bus error names.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}

	name := ErrorFailed
	var perr *player.PlaybackError
	switch {
	case errors.Is(err, soundboard.ErrNoSuchWidget):
		name = ErrorNoSuchWidget
	case errors.Is(err, soundboard.ErrAssetNotFound):
		name = ErrorAssetNotFound
	case catalog.IsNotFound(err):
		name = ErrorFolderNotFound
	case errors.As(err, &perr):
		name = ErrorPlayback
	}
	return dbus.NewError(name, []any{err.Error()})
}

// fromDBusError restores sentinel errors from D-Bus error replies.
func fromDBusError(err error) error {
	var (
		derr  dbus.Error
		pderr *dbus.Error
	)
	switch {
	case errors.As(err, &derr):
	case errors.As(err, &pderr):
		derr = *pderr
	default:
		return err
	}

	msg := derr.Error()
	switch derr.Name {
	case ErrorNoSuchWidget:
		return fmt.Errorf("%w (%s)", soundboard.ErrNoSuchWidget, msg)
	case ErrorAssetNotFound:
		return fmt.Errorf("%w (%s)", soundboard.ErrAssetNotFound, msg)
	case errorServiceUnknown, errorNameHasNoOwner:
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, msg)
	default:
		return errors.New(msg)
	}
}

// ErrServiceUnavailable is returned by the client when no daemon owns the bus name.
var ErrServiceUnavailable = errors.New("soundboard daemon is not running")
