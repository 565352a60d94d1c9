package catalog

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of vault changes is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a vault directory tree and reports changed audio files in batches.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	done     chan struct{}
	pending  map[string]struct{}
	timer    *time.Timer
	onChange func(paths []string)
}

// NewWatcher creates a watcher for the vault at root.
func NewWatcher(root string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		root:     root,
		debounce: debounce,
		logger:   logger,
		done:     make(chan struct{}),
		pending:  make(map[string]struct{}),
	}, nil
}

// SetChangeCallback sets the function called with the vault-relative paths
// that changed since the previous batch.
func (w *Watcher) SetChangeCallback(fn func(paths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start adds the vault tree to the watch list and begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addRoot(); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		if cerr := w.watcher.Close(); cerr != nil {
			w.logger.Debug("failed to close vault watcher", "error", cerr)
		}
		return err
	}

	go w.watch()
	return nil
}

func (w *Watcher) addRoot() error {
	info, err := os.Stat(w.root)
	if errors.Is(err, fs.ErrNotExist) {
		return &NotFoundError{Path: w.root, Kind: EntityNone}
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &NotFoundError{Path: w.root, Kind: EntityLeaf}
	}
	return w.addTree(w.root)
}

// Stop stops the watcher. Pending changes are discarded.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	return w.watcher.Close()
}

// addTree watches dir and every non-hidden directory below it.
// fsnotify is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directory vanished between the event and the walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("vault watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if isHidden(rel) {
		return
	}

	isDir := false
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			isDir = true
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new folder", "path", event.Name, "error", err)
			}
		}
	}

	// Removed or renamed entries can no longer be stat'ed, so a path without
	// an extension is treated as a folder.
	ext := filepath.Ext(rel)
	if !isDir && ext != "" && !IsAudioExtension(ext) {
		return
	}

	w.logger.Debug("vault changed", "path", rel, "op", event.Op.String())
	w.schedule(rel)
}

func (w *Watcher) schedule(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.pending[rel] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.running || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	fn := w.onChange
	w.mu.Unlock()

	slices.Sort(paths)
	if fn != nil {
		fn(paths)
	}
}

func isHidden(rel string) bool {
	for part := range strings.SplitSeq(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
