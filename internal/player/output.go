package player

import (
	"fmt"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

// Output is an audio output device bound to at most one source at a time.
type Output interface {
	// Load binds the output to a resource reference and rewinds to the start.
	Load(ref string) error

	// Play starts playback from the current position.
	Play() error

	// Stop halts playback and rewinds to the start.
	Stop() error

	// SetVolume applies a gain in [0,1] immediately.
	SetVolume(v float64)

	// OnCompleted registers the callback fired when a non-looping source reaches its end.
	OnCompleted(fn func())

	// OnError registers the callback fired on asynchronous playback failures.
	OnError(fn func(error))
}

// PlaybackError reports that the output failed to load or play an asset.
type PlaybackError struct {
	Asset *model.Asset
	Err   error
}

func (e *PlaybackError) Error() string {
	if e.Asset == nil {
		return fmt.Sprintf("playback failed: %v", e.Err)
	}
	return fmt.Sprintf("playback of %q failed: %v", e.Asset.Path, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NoopOutput accepts every command and produces no sound.
// Its completion never fires, so a playing controller stays Playing until stopped.
type NoopOutput struct{}

func (NoopOutput) Load(string) error { return nil }
func (NoopOutput) Play() error { return nil }
func (NoopOutput) Stop() error { return nil }
func (NoopOutput) SetVolume(float64) {}
func (NoopOutput) OnCompleted(func()) {}
func (NoopOutput) OnError(func(error)) {}
