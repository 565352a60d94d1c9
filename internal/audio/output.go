package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// ErrNotLoaded is returned by Play before any file has been loaded.
var ErrNotLoaded = errors.New("no sound loaded")

// Output is a single-source output device mixed into the engine's speaker.
// Playback starts asynchronously; decode failures are reported through OnError.
type Output struct {
	engine *Engine
	loop   bool
	logger *slog.Logger

	mu     sync.Mutex
	ref    string
	volume float64
	// gen identifies the current playback; callbacks from older generations are dropped.
	gen  uint64
	ctrl *beep.Ctrl
	vol  *effects.Volume

	onCompleted func()
	onError     func(error)
}

// NewOutput creates an output. A looping output restarts at end of stream and never completes.
func (e *Engine) NewOutput(loop bool) *Output {
	return &Output{
		engine: e,
		loop:   loop,
		logger: e.logger,
		volume: 1,
	}
}

// Load binds the output to a file. Any current playback is stopped.
func (o *Output) Load(ref string) error {
	if err := o.Stop(); err != nil {
		return err
	}

	info, err := os.Stat(ref)
	if err != nil {
		return fmt.Errorf("failed to load sound: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to load sound: %s is a directory", ref)
	}

	o.mu.Lock()
	o.ref = ref
	o.mu.Unlock()
	return nil
}

// Play starts playback of the loaded file from the start.
func (o *Output) Play() error {
	o.mu.Lock()
	if o.ref == "" {
		o.mu.Unlock()
		return ErrNotLoaded
	}
	o.gen++
	gen, ref := o.gen, o.ref
	o.mu.Unlock()

	go o.start(gen, ref)
	return nil
}

func (o *Output) start(gen uint64, ref string) {
	buffer, err := o.engine.Decode(ref)
	if err == nil {
		err = o.engine.ensureInitialized()
	}
	var streamer beep.Streamer
	if err == nil {
		streamer, err = o.engine.stream(buffer, o.loop)
	}
	if err != nil {
		o.fail(gen, err)
		return
	}

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	vol := &effects.Volume{Streamer: streamer, Base: 2}
	applyVolume(vol, o.volume)
	ctrl := &beep.Ctrl{Streamer: vol}
	o.ctrl, o.vol = ctrl, vol
	o.mu.Unlock()

	// Callbacks run with the speaker locked; hand off to avoid re-entering it.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		go o.finished(gen)
	})))
}

func (o *Output) fail(gen uint64, err error) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	fn, ref := o.onError, o.ref
	o.mu.Unlock()

	o.logger.Warn("playback failed", "path", ref, "error", err)
	if fn != nil {
		fn(err)
	}
}

func (o *Output) finished(gen uint64) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.ctrl, o.vol = nil, nil
	fn := o.onCompleted
	o.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop halts playback. The next Play starts from the beginning.
func (o *Output) Stop() error {
	o.mu.Lock()
	o.gen++
	ctrl := o.ctrl
	o.ctrl, o.vol = nil, nil
	o.mu.Unlock()

	if ctrl != nil {
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
	}
	return nil
}

// SetVolume sets the gain (0.0 to 1.0), applied to the live stream.
func (o *Output) SetVolume(v float64) {
	o.mu.Lock()
	o.volume = v
	vol := o.vol
	o.mu.Unlock()

	if vol != nil {
		speaker.Lock()
		applyVolume(vol, v)
		speaker.Unlock()
	}
}

// OnCompleted registers the end-of-stream callback.
func (o *Output) OnCompleted(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onCompleted = fn
}

// OnError registers the asynchronous failure callback.
func (o *Output) OnError(fn func(error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onError = fn
}

// applyVolume maps a linear gain onto a base-2 volume effect.
func applyVolume(vol *effects.Volume, gain float64) {
	if gain <= 0 {
		vol.Silent = true
		vol.Volume = 0
		return
	}
	vol.Silent = false
	vol.Volume = math.Log2(gain)
}
