package player

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

// State is the playback state of a controller.
type State int

const (
	StateIdle State = iota
	StateReady
	StatePlaying
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	default:
		return "idle"
	}
}

// StateChange is published after every transition.
type StateChange struct {
	ControllerID string
	State        State
	// Selected is the asset shown as selected; nil after a non-looping
	// completion even though the asset stays bound.
	Selected *model.Asset
	Playing  bool
	Err      error
}

// Options configures a Controller.
type Options struct {
	// Loop makes the output restart at end of stream. Fixed for the controller's lifetime.
	Loop bool

	// Volume is the initial gain in [0,1]. Zero mutes.
	Volume float64

	// ResourcePath maps an asset path to the reference passed to Output.Load.
	// Defaults to the identity.
	ResourcePath func(string) string

	Logger *slog.Logger
}

// Controller drives one Output for one widget.
type Controller struct {
	mu           sync.Mutex
	id           string
	out          Output
	loop         bool
	volume       float64
	resourcePath func(string) string
	logger       *slog.Logger

	bound    *model.Asset // asset loaded into the output
	selected *model.Asset // asset shown as selected
	playing  bool

	subscribers []chan StateChange
	subMu       sync.RWMutex
}

// NewController creates a controller in the Idle state and registers its
// callbacks with the output.
func NewController(out Output, opts Options) *Controller {
	if out == nil {
		out = NoopOutput{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resourcePath := opts.ResourcePath
	if resourcePath == nil {
		resourcePath = func(p string) string { return p }
	}

	c := &Controller{
		id:           ulid.Make().String(),
		out:          out,
		loop:         opts.Loop,
		volume:       clamp(opts.Volume),
		resourcePath: resourcePath,
		logger:       logger,
	}

	out.SetVolume(c.volume)
	out.OnCompleted(c.HandleCompletion)
	out.OnError(c.HandleError)

	return c
}

// ID returns the controller's unique identifier.
func (c *Controller) ID() string {
	return c.id
}

// Loop reports whether the controller loops its asset.
func (c *Controller) Loop() bool {
	return c.loop
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Selected returns a copy of the asset shown as selected, or nil.
func (c *Controller) Selected() *model.Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyAsset(c.selected)
}

// Bound returns a copy of the asset loaded into the output, or nil.
func (c *Controller) Bound() *model.Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyAsset(c.bound)
}

// IsPlaying reports whether the output is producing sound.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Volume returns the current gain.
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Select binds asset to the output without starting playback.
// A playing asset is stopped first. Select(nil) returns to Idle.
func (c *Controller) Select(asset *model.Asset) error {
	c.mu.Lock()

	if asset == nil {
		changed := c.bound != nil || c.selected != nil || c.playing
		c.stopLocked()
		c.bound, c.selected = nil, nil
		change := c.changeLocked(nil)
		c.mu.Unlock()

		if changed {
			c.notify(change)
		}
		return nil
	}

	c.stopLocked()

	next := copyAsset(asset)
	if err := c.out.Load(c.resourcePath(next.Path)); err != nil {
		c.bound, c.selected = nil, nil
		perr := &PlaybackError{Asset: next, Err: err}
		change := c.changeLocked(perr)
		c.mu.Unlock()

		c.logger.Warn("failed to load asset", "controller", c.id, "path", next.Path, "error", err)
		c.notify(change)
		return perr
	}

	c.bound, c.selected = next, next
	change := c.changeLocked(nil)
	c.mu.Unlock()

	c.logger.Debug("asset selected", "controller", c.id, "path", next.Path)
	c.notify(change)
	return nil
}

// TogglePlay starts playback when Ready and stops it when Playing.
// It does nothing when Idle.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()

	switch {
	case c.bound == nil:
		c.mu.Unlock()
		return nil

	case c.playing:
		c.stopLocked()
		change := c.changeLocked(nil)
		c.mu.Unlock()

		c.notify(change)
		return nil

	default:
		if err := c.out.Play(); err != nil {
			perr := &PlaybackError{Asset: copyAsset(c.bound), Err: err}
			change := c.changeLocked(perr)
			c.mu.Unlock()

			c.logger.Warn("failed to start playback", "controller", c.id, "path", perr.Asset.Path, "error", err)
			c.notify(change)
			return perr
		}
		c.playing = true
		c.selected = c.bound
		change := c.changeLocked(nil)
		c.mu.Unlock()

		c.notify(change)
		return nil
	}
}

// SetVolume clamps v to [0,1] and applies it to the output in any state.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clamp(v)
	c.out.SetVolume(c.volume)
}

// Stop halts playback if playing. Stopping an already stopped controller is not an error.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return nil
	}

	err := c.out.Stop()
	c.playing = false
	change := c.changeLocked(nil)
	c.mu.Unlock()

	c.notify(change)
	return err
}

// HandleCompletion is called by the output when a non-looping source ends.
func (c *Controller) HandleCompletion() {
	c.mu.Lock()

	// A looping output restarts on its own; stale completions after a stop are ignored.
	if c.loop || !c.playing {
		c.mu.Unlock()
		return
	}

	c.playing = false
	c.selected = nil
	change := c.changeLocked(nil)
	c.mu.Unlock()

	c.notify(change)
}

// HandleError is called by the output when playback fails asynchronously.
// The controller reverts to Ready for the bound asset.
func (c *Controller) HandleError(err error) {
	c.mu.Lock()
	if c.bound == nil {
		c.mu.Unlock()
		c.logger.Warn("playback error with no asset bound", "controller", c.id, "error", err)
		return
	}

	c.playing = false
	perr := &PlaybackError{Asset: copyAsset(c.bound), Err: err}
	change := c.changeLocked(perr)
	c.mu.Unlock()

	c.logger.Warn("playback failed", "controller", c.id, "error", perr)
	c.notify(change)
}

// stopLocked stops the output if playing. Output errors are logged; the
// controller is considered stopped regardless.
func (c *Controller) stopLocked() {
	if !c.playing {
		return
	}
	if err := c.out.Stop(); err != nil {
		c.logger.Warn("failed to stop output", "controller", c.id, "error", err)
	}
	c.playing = false
}

func (c *Controller) stateLocked() State {
	switch {
	case c.bound == nil:
		return StateIdle
	case c.playing:
		return StatePlaying
	default:
		return StateReady
	}
}

func (c *Controller) changeLocked(err error) StateChange {
	return StateChange{
		ControllerID: c.id,
		State:        c.stateLocked(),
		Selected:     copyAsset(c.selected),
		Playing:      c.playing,
		Err:          err,
	}
}

// Subscribe returns a channel that receives state changes.
func (c *Controller) Subscribe() <-chan StateChange {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch := make(chan StateChange, 10)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription channel.
func (c *Controller) Unsubscribe(ch <-chan StateChange) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for i, sub := range c.subscribers {
		if sub == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes all subscription channels.
func (c *Controller) Close() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
}

// notify sends a change to all subscribers without blocking.
func (c *Controller) notify(change StateChange) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- change:
		default:
			// Channel full, skip
		}
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func copyAsset(a *model.Asset) *model.Asset {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
