package daemon

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/localsoundboard/internal/config"
)

const defaultReloadInterval = 2 * time.Second

// ConfigChange describes a reloaded config relative to the one it replaces.
type ConfigChange struct {
	Old *config.Config
	New *config.Config

	// FoldersChanged reports a different status-bar widget set, including
	// the status bar being switched on or off.
	FoldersChanged bool
	VaultChanged   bool
	VolumeChanged  bool
}

// diffConfig compares the parts of two configs the daemon reacts to.
func diffConfig(old, next *config.Config) ConfigChange {
	return ConfigChange{
		Old:            old,
		New:            next,
		FoldersChanged: !slices.Equal(old.StatusBarFolders(), next.StatusBarFolders()),
		VaultChanged:   old.Vault.Path != next.Vault.Path,
		VolumeChanged:  old.Playback.DefaultVolume != next.Playback.DefaultVolume,
	}
}

// ConfigWatcherOptions configures a ConfigWatcher.
type ConfigWatcherOptions struct {
	Path     string        // empty uses config.ConfigPath()
	Interval time.Duration // zero polls every 2s
	OnChange func(ConfigChange)
	OnError  func(error) // the file changed but does not load
	Logger   *slog.Logger
}

// ConfigWatcher polls config.toml and hands every valid edit to OnChange
// as a diff against the config in effect. An invalid file leaves the
// applied config untouched.
type ConfigWatcher struct {
	opts ConfigWatcherOptions

	mu      sync.Mutex
	applied *config.Config
	modTime time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConfigWatcher creates a watcher. Nothing is polled until Start.
func NewConfigWatcher(opts ConfigWatcherOptions) *ConfigWatcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Path == "" {
		opts.Path = config.ConfigPath()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultReloadInterval
	}
	return &ConfigWatcher{opts: opts}
}

// Start polls until Stop or ctx is cancelled. applied is the config the
// first diff is taken against.
func (w *ConfigWatcher) Start(ctx context.Context, applied *config.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}
	w.applied = applied
	if info, err := os.Stat(w.opts.Path); err == nil {
		w.modTime = info.ModTime()
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done)

	w.opts.Logger.Debug("config watcher started", "path", w.opts.Path, "interval", w.opts.Interval)
}

// Stop stops polling and waits for an in-flight reload to finish.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.opts.Logger.Debug("config watcher stopped")
}

func (w *ConfigWatcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *ConfigWatcher) poll() {
	info, err := os.Stat(w.opts.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.opts.Logger.Debug("failed to stat config file", "path", w.opts.Path, "error", err)
		}
		return
	}

	w.mu.Lock()
	if !info.ModTime().After(w.modTime) {
		w.mu.Unlock()
		return
	}
	w.modTime = info.ModTime()
	w.mu.Unlock()

	next, err := config.LoadConfig(w.opts.Path)
	if err != nil {
		w.opts.Logger.Warn("config file changed but does not load, keeping the previous one", "error", err)
		if w.opts.OnError != nil {
			w.opts.OnError(err)
		}
		return
	}

	w.mu.Lock()
	change := diffConfig(w.applied, next)
	w.applied = next
	w.mu.Unlock()

	w.opts.Logger.Info("config reloaded",
		"folders_changed", change.FoldersChanged,
		"vault_changed", change.VaultChanged,
	)
	if w.opts.OnChange != nil {
		w.opts.OnChange(change)
	}
}
