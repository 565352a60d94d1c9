// Package soundboard hosts a set of folder-backed widgets, each pairing a
// resolved catalog with its own playback controller.
package soundboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/model"
	"github.com/jmylchreest/localsoundboard/internal/player"
)

// Board errors.
var (
	ErrNoSuchWidget  = errors.New("no such widget")
	ErrAssetNotFound = errors.New("asset not in catalog")
	ErrSuperseded    = errors.New("load superseded by a newer request")
)

// OutputFactory creates the output device for a widget.
type OutputFactory func(loop bool) player.Output

// Options configures a Board.
type Options struct {
	Lister       catalog.Lister
	NewOutput    OutputFactory       // nil = silent outputs
	ResourcePath func(string) string // maps asset paths for Output.Load
	Volume       float64             // initial widget volume
	Logger       *slog.Logger
}

// Widget is one folder-backed soundboard.
type Widget struct {
	Index      int // 1-based
	Folder     model.Folder
	Catalog    model.Catalog
	Err        error // resolve failure; the catalog is empty when set
	Controller *player.Controller
}

// Title returns the widget's display title.
func (w Widget) Title() string {
	return w.Folder.DisplayName()
}

// WidgetChange is a controller state change tagged with its widget.
type WidgetChange struct {
	Index int
	player.StateChange
}

// WidgetStatus is a serialisable snapshot of a widget.
type WidgetStatus struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Folder   string  `json:"folder"`
	Icon     string  `json:"icon"`
	Loop     bool    `json:"loop"`
	State    string  `json:"state"`
	Selected string  `json:"selected,omitempty"`
	Title    string  `json:"title,omitempty"`
	Volume   float64 `json:"volume"`
	Tracks   int     `json:"tracks"`
	Error    string  `json:"error,omitempty"`
}

// Board owns the widgets built from a list of folders.
type Board struct {
	lister       catalog.Lister
	newOutput    OutputFactory
	resourcePath func(string) string
	volume       float64
	logger       *slog.Logger
	registry     *Registry

	mu         sync.RWMutex
	widgets    []*Widget
	folders    []model.Folder
	generation uint64

	forwarders  sync.WaitGroup
	subscribers []chan WidgetChange
	subMu       sync.RWMutex
}

// New creates an empty board.
func New(opts Options) *Board {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newOutput := opts.NewOutput
	if newOutput == nil {
		newOutput = func(bool) player.Output { return player.NoopOutput{} }
	}

	return &Board{
		lister:       opts.Lister,
		newOutput:    newOutput,
		resourcePath: opts.ResourcePath,
		volume:       opts.Volume,
		logger:       logger,
		registry:     NewRegistry(logger),
	}
}

// Registry returns the board's controller registry.
func (b *Board) Registry() *Registry {
	return b.registry
}

type resolved struct {
	catalog model.Catalog
	err     error
}

// resolveAll resolves every folder. Per-folder failures are kept, not returned.
func (b *Board) resolveAll(ctx context.Context, folders []model.Folder) ([]resolved, error) {
	results := make([]resolved, len(folders))
	for i, f := range folders {
		c, err := catalog.Resolve(ctx, f.Path, b.lister)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			b.logger.Warn("failed to load audio files", "folder", f.Path, "error", err)
			c = model.Catalog{}
		}
		results[i] = resolved{catalog: c, err: err}
	}
	return results, nil
}

// Load replaces the widgets with one per folder. Existing widgets are stopped
// and discarded. When a newer Load or Refresh starts before this one finishes,
// this one returns ErrSuperseded and changes nothing.
func (b *Board) Load(ctx context.Context, folders []model.Folder) error {
	folders = append([]model.Folder(nil), folders...)

	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	results, err := b.resolveAll(ctx, folders)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return ErrSuperseded
	}
	old := b.widgets
	b.widgets = make([]*Widget, len(folders))
	b.folders = folders
	for i, f := range folders {
		b.widgets[i] = b.newWidget(i+1, f, results[i])
	}
	b.mu.Unlock()

	b.discard(old)
	b.logger.Debug("board loaded", "widgets", len(folders))
	return nil
}

func (b *Board) newWidget(index int, f model.Folder, r resolved) *Widget {
	ctrl := player.NewController(b.newOutput(f.Loop), player.Options{
		Loop:         f.Loop,
		Volume:       b.volume,
		ResourcePath: b.resourcePath,
		Logger:       b.logger.With("widget", index),
	})
	b.registry.Add(ctrl)

	ch := ctrl.Subscribe()
	b.forwarders.Add(1)
	go b.forward(index, ch)

	return &Widget{
		Index:      index,
		Folder:     f,
		Catalog:    r.catalog,
		Err:        r.err,
		Controller: ctrl,
	}
}

func (b *Board) discard(widgets []*Widget) {
	for _, w := range widgets {
		if err := w.Controller.Stop(); err != nil {
			b.logger.Warn("failed to stop widget", "widget", w.Index, "error", err)
		}
		b.registry.Remove(w.Controller.ID())
		w.Controller.Close()
	}
}

// Refresh stops all playback and re-resolves every widget's catalog.
func (b *Board) Refresh(ctx context.Context) error {
	if err := b.StopAll(); err != nil {
		b.logger.Warn("refresh: stop all", "error", err)
	}
	return b.Rescan(ctx)
}

// Rescan re-resolves every widget's catalog without touching playback.
// Controllers and volumes are kept; a selection whose file disappeared is cleared.
func (b *Board) Rescan(ctx context.Context) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	folders := b.folders
	b.mu.Unlock()

	results, err := b.resolveAll(ctx, folders)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return ErrSuperseded
	}
	var orphaned []*Widget
	for i, w := range b.widgets {
		w.Catalog, w.Err = results[i].catalog, results[i].err
		if bound := w.Controller.Bound(); bound != nil && w.Catalog.Lookup(bound.Path) == nil {
			orphaned = append(orphaned, w)
		}
	}
	b.mu.Unlock()

	for _, w := range orphaned {
		_ = w.Controller.Select(nil)
	}

	b.logger.Debug("board rescanned", "widgets", len(folders))
	return nil
}

// Folders returns the folders the board was loaded with.
func (b *Board) Folders() []model.Folder {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.Folder(nil), b.folders...)
}

// Widgets returns a snapshot of the widgets.
func (b *Board) Widgets() []Widget {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Widget, len(b.widgets))
	for i, w := range b.widgets {
		out[i] = *w
	}
	return out
}

// Widget returns a snapshot of the widget at the 1-based index.
func (b *Board) Widget(index int) (Widget, error) {
	w, err := b.widget(index)
	if err != nil {
		return Widget{}, err
	}
	return *w, nil
}

func (b *Board) widget(index int) (*Widget, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if index < 1 || index > len(b.widgets) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchWidget, index)
	}
	return b.widgets[index-1], nil
}

// Select binds the asset at path to the widget. An empty path clears the selection.
func (b *Board) Select(index int, path string) error {
	w, err := b.widget(index)
	if err != nil {
		return err
	}
	if path == "" {
		return w.Controller.Select(nil)
	}

	b.mu.RLock()
	asset := w.Catalog.Lookup(path)
	b.mu.RUnlock()
	if asset == nil {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, path)
	}
	return w.Controller.Select(asset)
}

// SelectTrack binds the asset at the 1-based catalog position. Zero clears the selection.
func (b *Board) SelectTrack(index, track int) error {
	w, err := b.widget(index)
	if err != nil {
		return err
	}
	if track == 0 {
		return w.Controller.Select(nil)
	}

	b.mu.RLock()
	asset := w.Catalog.LookupByIndex(track)
	b.mu.RUnlock()
	if asset == nil {
		return fmt.Errorf("%w: track %d", ErrAssetNotFound, track)
	}
	return w.Controller.Select(asset)
}

// Toggle starts or stops the widget's playback.
func (b *Board) Toggle(index int) error {
	w, err := b.widget(index)
	if err != nil {
		return err
	}
	return w.Controller.TogglePlay()
}

// SetVolume sets the widget's volume; out-of-range values are clamped.
func (b *Board) SetVolume(index int, v float64) error {
	w, err := b.widget(index)
	if err != nil {
		return err
	}
	w.Controller.SetVolume(v)
	return nil
}

// StopAll stops playback in every widget.
func (b *Board) StopAll() error {
	return b.registry.StopAll()
}

// Status returns a snapshot of every widget.
func (b *Board) Status() []WidgetStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]WidgetStatus, len(b.widgets))
	for i, w := range b.widgets {
		out[i] = statusOf(w)
	}
	return out
}

func statusOf(w *Widget) WidgetStatus {
	s := WidgetStatus{
		Index:  w.Index,
		Name:   w.Folder.DisplayName(),
		Folder: w.Folder.Path,
		Icon:   w.Folder.IconName(),
		Loop:   w.Controller.Loop(),
		State:  w.Controller.State().String(),
		Volume: w.Controller.Volume(),
		Tracks: len(w.Catalog),
	}
	if sel := w.Controller.Selected(); sel != nil {
		s.Selected = sel.Path
		s.Title = sel.Basename
	}
	if w.Err != nil {
		s.Error = w.Err.Error()
	}
	return s
}

func (b *Board) forward(index int, ch <-chan player.StateChange) {
	defer b.forwarders.Done()
	for change := range ch {
		b.notify(WidgetChange{Index: index, StateChange: change})
	}
}

// Subscribe returns a channel that receives widget state changes.
func (b *Board) Subscribe() <-chan WidgetChange {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	ch := make(chan WidgetChange, 10)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription channel.
func (b *Board) Unsubscribe(ch <-chan WidgetChange) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// notify sends a change to all subscribers without blocking.
func (b *Board) notify(change WidgetChange) {
	b.subMu.RLock()
	defer b.subMu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- change:
		default:
			// Channel full, skip
		}
	}
}

// Close stops every widget and closes all subscription channels.
func (b *Board) Close() {
	b.mu.Lock()
	old := b.widgets
	b.widgets = nil
	b.generation++
	b.mu.Unlock()

	b.discard(old)
	b.forwarders.Wait()

	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
