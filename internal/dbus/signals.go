package dbus

import (
	"context"
	"fmt"

	"github.com/jmylchreest/localsoundboard/internal/soundboard"
)

// EmitStateChanged emits the StateChanged signal for a widget change.
func (s *Service) EmitStateChanged(change soundboard.WidgetChange) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := s.conn.Emit(Path, Interface+"."+SignalStateChanged, stateChangedArgs(change)...); err != nil {
		return fmt.Errorf("failed to emit StateChanged signal: %w", err)
	}

	s.logger.Debug("emitted StateChanged signal", "widget", change.Index, "state", change.State.String())
	return nil
}

// Forward emits a StateChanged signal for every change until ctx is done or ch closes.
func (s *Service) Forward(ctx context.Context, changes <-chan soundboard.WidgetChange) {
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			if err := s.EmitStateChanged(change); err != nil {
				s.logger.Warn("failed to emit state change", "widget", change.Index, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
