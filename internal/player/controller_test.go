package player

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

// fakeOutput records commands and lets tests fire callbacks.
type fakeOutput struct {
	mu          sync.Mutex
	loaded      string
	playing     bool
	volume      float64
	calls       []string
	loadErr     error
	playErr     error
	stopErr     error
	onCompleted func()
	onError     func(error)
}

func (f *fakeOutput) Load(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "load:"+ref)
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = ref
	f.playing = false
	return nil
}

func (f *fakeOutput) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "play")
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *fakeOutput) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "stop")
	f.playing = false
	return f.stopErr
}

func (f *fakeOutput) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *fakeOutput) OnCompleted(fn func()) { f.onCompleted = fn }
func (f *fakeOutput) OnError(fn func(error)) { f.onError = fn }

func (f *fakeOutput) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeOutput) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func newTestController(t *testing.T, loop bool) (*Controller, *fakeOutput, <-chan StateChange) {
	t.Helper()
	out := &fakeOutput{}
	c := NewController(out, Options{Loop: loop, Volume: 1})
	ch := c.Subscribe()
	t.Cleanup(c.Close)
	return c, out, ch
}

func drain(ch <-chan StateChange) []StateChange {
	var changes []StateChange
	for {
		select {
		case change := <-ch:
			changes = append(changes, change)
		default:
			return changes
		}
	}
}

var (
	assetA = &model.Asset{Path: "Audio/a.mp3", Basename: "a", Extension: "mp3"}
	assetB = &model.Asset{Path: "Audio/b.wav", Basename: "b", Extension: "wav"}
)

func TestController_StartsIdle(t *testing.T) {
	c, out, _ := newTestController(t, false)

	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Selected())
	assert.False(t, c.IsPlaying())
	assert.NotEmpty(t, c.ID())
	assert.NotNil(t, out.onCompleted)
	assert.NotNil(t, out.onError)
}

func TestController_ToggleFromIdleIsNoop(t *testing.T) {
	c, out, ch := newTestController(t, false)

	require.NoError(t, c.TogglePlay())
	require.NoError(t, c.TogglePlay())

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, out.Calls())
	assert.Empty(t, drain(ch))
}

func TestController_SelectDoesNotAutoPlay(t *testing.T) {
	c, out, ch := newTestController(t, false)

	require.NoError(t, c.Select(assetA))

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, []string{"load:Audio/a.mp3"}, out.Calls())
	assert.False(t, out.playing)

	changes := drain(ch)
	require.Len(t, changes, 1)
	assert.Equal(t, StateReady, changes[0].State)
	assert.Equal(t, "Audio/a.mp3", changes[0].Selected.Path)
	assert.Equal(t, c.ID(), changes[0].ControllerID)
}

func TestController_ToggleCycle(t *testing.T) {
	c, out, ch := newTestController(t, false)
	require.NoError(t, c.Select(assetA))

	require.NoError(t, c.TogglePlay())
	assert.Equal(t, StatePlaying, c.State())
	assert.True(t, out.playing)

	require.NoError(t, c.TogglePlay())
	assert.Equal(t, StateReady, c.State())
	assert.False(t, out.playing)
	assert.Equal(t, "Audio/a.mp3", c.Selected().Path)

	assert.Equal(t, []string{"load:Audio/a.mp3", "play", "stop"}, out.Calls())

	changes := drain(ch)
	require.Len(t, changes, 3)
	assert.Equal(t, []State{StateReady, StatePlaying, StateReady},
		[]State{changes[0].State, changes[1].State, changes[2].State})
	assert.True(t, changes[1].Playing)
}

func TestController_SelectWhilePlayingStopsFirst(t *testing.T) {
	c, out, _ := newTestController(t, false)
	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())

	require.NoError(t, c.Select(assetB))

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, "Audio/b.wav", c.Selected().Path)
	assert.Equal(t, []string{"load:Audio/a.mp3", "play", "stop", "load:Audio/b.wav"}, out.Calls())
}

func TestController_SelectNil(t *testing.T) {
	c, out, ch := newTestController(t, false)

	require.NoError(t, c.Select(nil))
	assert.Empty(t, drain(ch), "clearing an idle controller emits nothing")

	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())
	drain(ch)

	require.NoError(t, c.Select(nil))
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Bound())
	assert.Contains(t, out.Calls(), "stop")

	changes := drain(ch)
	require.Len(t, changes, 1)
	assert.Equal(t, StateIdle, changes[0].State)
	assert.Nil(t, changes[0].Selected)
}

func TestController_CompletionWithoutLoop(t *testing.T) {
	c, out, ch := newTestController(t, false)
	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())
	drain(ch)

	out.onCompleted()

	assert.Equal(t, StateReady, c.State())
	assert.Nil(t, c.Selected(), "displayed selection is cleared")
	require.NotNil(t, c.Bound())
	assert.Equal(t, "Audio/a.mp3", c.Bound().Path)

	changes := drain(ch)
	require.Len(t, changes, 1)
	assert.Equal(t, StateReady, changes[0].State)
	assert.Nil(t, changes[0].Selected)
	assert.False(t, changes[0].Playing)

	// The bound asset replays on the next toggle.
	require.NoError(t, c.TogglePlay())
	assert.Equal(t, StatePlaying, c.State())
	assert.Equal(t, "Audio/a.mp3", c.Selected().Path)
}

func TestController_CompletionWithLoop(t *testing.T) {
	c, out, ch := newTestController(t, true)
	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())
	drain(ch)

	out.onCompleted()

	assert.Equal(t, StatePlaying, c.State())
	assert.Equal(t, "Audio/a.mp3", c.Selected().Path)
	assert.Empty(t, drain(ch))
	assert.True(t, c.Loop())
}

func TestController_StaleCompletionIgnored(t *testing.T) {
	c, out, ch := newTestController(t, false)
	require.NoError(t, c.Select(assetA))
	drain(ch)

	out.onCompleted()

	assert.Equal(t, StateReady, c.State())
	assert.NotNil(t, c.Selected())
	assert.Empty(t, drain(ch))
}

func TestController_SetVolumeClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.5, 1},
		{-0.3, 0},
		{0.42, 0.42},
	}

	for _, tt := range tests {
		c, out, ch := newTestController(t, false)
		c.SetVolume(tt.in)
		assert.InDelta(t, tt.want, c.Volume(), 1e-9)
		assert.InDelta(t, tt.want, out.Volume(), 1e-9)
		assert.Empty(t, drain(ch), "volume changes do not emit")
	}
}

func TestController_SetVolumeInEveryState(t *testing.T) {
	c, out, _ := newTestController(t, false)

	c.SetVolume(0.1)
	assert.InDelta(t, 0.1, out.Volume(), 1e-9)
	assert.Equal(t, StateIdle, c.State())

	require.NoError(t, c.Select(assetA))
	c.SetVolume(0.2)
	assert.InDelta(t, 0.2, out.Volume(), 1e-9)
	assert.Equal(t, StateReady, c.State())

	require.NoError(t, c.TogglePlay())
	c.SetVolume(0.3)
	assert.InDelta(t, 0.3, out.Volume(), 1e-9)
	assert.Equal(t, StatePlaying, c.State())
}

func TestController_InitialVolumeApplied(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out, Options{Volume: 0.5})
	defer c.Close()

	assert.InDelta(t, 0.5, out.Volume(), 1e-9)
}

func TestController_LoadError(t *testing.T) {
	c, out, ch := newTestController(t, false)
	loadErr := errors.New("no such file")
	out.loadErr = loadErr

	err := c.Select(assetA)
	require.Error(t, err)

	var perr *PlaybackError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, "Audio/a.mp3", perr.Asset.Path)
	assert.Equal(t, StateIdle, c.State())

	changes := drain(ch)
	require.Len(t, changes, 1)
	assert.ErrorIs(t, changes[0].Err, loadErr)

	// Not poisoned.
	out.loadErr = nil
	require.NoError(t, c.Select(assetB))
	assert.Equal(t, StateReady, c.State())
}

func TestController_PlayErrorStaysReady(t *testing.T) {
	c, out, ch := newTestController(t, false)
	require.NoError(t, c.Select(assetA))
	drain(ch)
	out.playErr = errors.New("device busy")

	err := c.TogglePlay()
	require.Error(t, err)

	var perr *PlaybackError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StateReady, c.State())

	changes := drain(ch)
	require.Len(t, changes, 1)
	assert.Equal(t, StateReady, changes[0].State)
	assert.Error(t, changes[0].Err)
}

func TestController_PlayErrorDuringConcurrentClear(t *testing.T) {
	c, out, _ := newTestController(t, false)
	out.playErr = errors.New("device busy")

	var wg sync.WaitGroup
	for range 200 {
		require.NoError(t, c.Select(assetA))

		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.TogglePlay()
		}()
		go func() {
			defer wg.Done()
			_ = c.Select(nil)
		}()
		wg.Wait()
	}

	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.IsPlaying())
}

func TestController_AsyncError(t *testing.T) {
	c, out, ch := newTestController(t, false)
	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())
	drain(ch)

	decodeErr := errors.New("corrupt stream")
	out.onError(decodeErr)

	assert.Equal(t, StateReady, c.State())

	changes := drain(ch)
	require.Len(t, changes, 1)
	var perr *PlaybackError
	require.ErrorAs(t, changes[0].Err, &perr)
	assert.ErrorIs(t, perr, decodeErr)
	assert.Equal(t, "Audio/a.mp3", perr.Asset.Path)
	assert.Contains(t, perr.Error(), "Audio/a.mp3")

	require.NoError(t, c.TogglePlay())
	assert.Equal(t, StatePlaying, c.State())
}

func TestController_AsyncErrorWhenIdle(t *testing.T) {
	c, out, ch := newTestController(t, false)

	out.onError(errors.New("late"))

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, drain(ch))
}

func TestController_Stop(t *testing.T) {
	c, out, ch := newTestController(t, false)

	require.NoError(t, c.Stop(), "stopping an idle controller is fine")
	assert.Empty(t, out.Calls())

	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())
	drain(ch)

	require.NoError(t, c.Stop())
	assert.Equal(t, StateReady, c.State())
	require.Len(t, drain(ch), 1)

	require.NoError(t, c.Stop())
	assert.Empty(t, drain(ch))
}

func TestController_StopErrorStillStops(t *testing.T) {
	c, out, _ := newTestController(t, false)
	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())
	out.stopErr = errors.New("device gone")

	err := c.Stop()
	require.Error(t, err)
	assert.Equal(t, StateReady, c.State())
}

func TestController_ResourcePath(t *testing.T) {
	out := &fakeOutput{}
	c := NewController(out, Options{
		Volume:       1,
		ResourcePath: func(p string) string { return "/vault/" + p },
	})
	defer c.Close()

	require.NoError(t, c.Select(assetA))
	assert.Equal(t, "/vault/Audio/a.mp3", out.loaded)
	assert.Equal(t, "Audio/a.mp3", c.Selected().Path)
}

func TestController_SelectedIsCopy(t *testing.T) {
	c, _, _ := newTestController(t, false)
	asset := &model.Asset{Path: "x.mp3", Basename: "x", Extension: "mp3"}
	require.NoError(t, c.Select(asset))

	asset.Path = "mutated"
	assert.Equal(t, "x.mp3", c.Selected().Path)
}

func TestController_Unsubscribe(t *testing.T) {
	c, _, ch := newTestController(t, false)
	c.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)

	require.NoError(t, c.Select(assetA))
}

func TestController_NilOutput(t *testing.T) {
	c := NewController(nil, Options{})
	defer c.Close()

	require.NoError(t, c.Select(assetA))
	require.NoError(t, c.TogglePlay())
	assert.Equal(t, StatePlaying, c.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "playing", StatePlaying.String())
}

// TestController_Properties drives random event sequences and checks the
// controller against a reference model of the state machine.
func TestController_Properties(t *testing.T) {
	assets := []*model.Asset{nil, assetA, assetB}

	rapid.Check(t, func(t *rapid.T) {
		loop := rapid.Bool().Draw(t, "loop")
		out := &fakeOutput{}
		c := NewController(out, Options{Loop: loop, Volume: 1})
		defer c.Close()

		var bound *model.Asset
		playing := false

		steps := rapid.IntRange(0, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				a := rapid.SampledFrom(assets).Draw(t, "asset")
				if err := c.Select(a); err != nil {
					t.Fatalf("select: %v", err)
				}
				bound, playing = a, false
			case 1:
				if err := c.TogglePlay(); err != nil {
					t.Fatalf("toggle: %v", err)
				}
				if bound != nil {
					playing = !playing
				}
			case 2:
				if !playing {
					break
				}
				if !loop {
					out.mu.Lock()
					out.playing = false
					out.mu.Unlock()
					playing = false
				}
				out.onCompleted()
			case 3:
				v := rapid.Float64Range(-2, 2).Draw(t, "volume")
				before := c.State()
				c.SetVolume(v)
				if got := c.Volume(); got < 0 || got > 1 {
					t.Fatalf("volume %v out of range", got)
				}
				if c.State() != before {
					t.Fatalf("volume changed state")
				}
			case 4:
				_ = c.Stop()
				playing = false
			}

			want := StateIdle
			if bound != nil {
				want = StateReady
				if playing {
					want = StatePlaying
				}
			}
			if got := c.State(); got != want {
				t.Fatalf("state %v, want %v", got, want)
			}
			if out.playing != (want == StatePlaying) {
				t.Fatalf("output playing=%v in state %v", out.playing, want)
			}
		}
	})
}
