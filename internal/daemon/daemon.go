package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/localsoundboard/internal/audio"
	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/config"
	"github.com/jmylchreest/localsoundboard/internal/dbus"
	"github.com/jmylchreest/localsoundboard/internal/player"
	"github.com/jmylchreest/localsoundboard/internal/soundboard"
)

// Options configures a Daemon.
type Options struct {
	Config     *config.Config
	ConfigPath string // watched for hot reload; empty uses the default path
	Daemon     *config.DaemonConfig
	Engine     *audio.Engine // nil plays nothing
	Notifier   *Notifier     // nil only logs
	Logger     *slog.Logger
}

// Daemon hosts the status-bar widgets.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	cfg     *config.Config
	board   *soundboard.Board
	lister  *catalog.VaultLister
	service *dbus.Service
	vault   *catalog.Watcher
	reload  *ConfigWatcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a daemon. Nothing runs until Start.
func New(opts Options) *Daemon {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Daemon == nil {
		opts.Daemon = config.DefaultDaemonConfig()
	}
	if opts.Notifier == nil {
		opts.Notifier = NewNotifier(nil, opts.Logger)
	}
	return &Daemon{
		opts:   opts,
		logger: opts.Logger,
		cfg:    opts.Config,
	}
}

// Board returns the daemon's board, or nil before Start.
func (d *Daemon) Board() *soundboard.Board {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.board
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Start builds the board from the configured folders and starts the enabled services.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	vaultPath, err := d.cfg.VaultPath()
	if err != nil {
		return fmt.Errorf("failed to resolve vault path: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.lister = catalog.NewVaultLister(vaultPath)
	d.board = soundboard.New(soundboard.Options{
		Lister:       d.lister,
		NewOutput:    d.outputFactory(),
		ResourcePath: d.lister.ResourcePath,
		Volume:       d.cfg.Playback.DefaultVolume,
		Logger:       d.logger,
	})

	if err := d.board.Load(ctx, d.cfg.StatusBarFolders()); err != nil {
		cancel()
		d.board.Close()
		return fmt.Errorf("failed to load widgets: %w", err)
	}
	d.reportFolderErrors(d.board)

	changes := d.board.Subscribe()
	d.wg.Add(1)
	go d.watchPlayback(ctx, changes)

	dc := d.opts.Daemon
	if dc.DBus.Enabled {
		d.service = dbus.NewService(d.board, d.logger)
		if err := d.service.Start(); err != nil {
			d.service = nil
			cancel()
			d.board.Close()
			d.wg.Wait()
			return fmt.Errorf("failed to start D-Bus service: %w", err)
		}
		signals := d.board.Subscribe()
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.service.Forward(ctx, signals)
		}()
	}

	if dc.Watch.Enabled {
		if err := d.startVaultWatcher(ctx, vaultPath); err != nil {
			// Widgets still work without auto refresh.
			d.logger.Warn("vault watcher disabled", "path", vaultPath, "error", err)
		}
	}

	if interval := dc.Reload.PollInterval.Duration(); interval > 0 {
		d.reload = NewConfigWatcher(ConfigWatcherOptions{
			Path:     d.opts.ConfigPath,
			Interval: interval,
			OnChange: func(change ConfigChange) { d.applyConfig(ctx, change) },
			OnError:  d.opts.Notifier.NotifyConfigError,
			Logger:   d.logger,
		})
		d.reload.Start(ctx, d.cfg)
	}

	d.started = true
	d.logger.Info("soundboard daemon started",
		"vault", vaultPath,
		"widgets", len(d.board.Widgets()),
		"dbus", dc.DBus.Enabled,
		"watch", d.vault != nil,
	)
	return nil
}

// Stop stops every service and discards the widgets.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	d.shutdown()
	d.logger.Info("soundboard daemon stopped")
}

// shutdown tears down whatever Start created. The watchers' callbacks take
// d.mu, so it must not be held here.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	reload, vault, service, board, cancel := d.reload, d.vault, d.service, d.board, d.cancel
	d.reload, d.vault, d.service = nil, nil, nil
	d.mu.Unlock()

	if reload != nil {
		reload.Stop()
	}
	if vault != nil {
		if err := vault.Stop(); err != nil {
			d.logger.Warn("error stopping vault watcher", "error", err)
		}
	}
	if service != nil {
		if err := service.Stop(); err != nil {
			d.logger.Warn("error stopping D-Bus service", "error", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if board != nil {
		board.Close()
	}
	d.wg.Wait()
}

func (d *Daemon) outputFactory() soundboard.OutputFactory {
	engine := d.opts.Engine
	if engine == nil {
		return nil
	}
	return func(loop bool) player.Output {
		return engine.NewOutput(loop)
	}
}

func (d *Daemon) startVaultWatcher(ctx context.Context, root string) error {
	w, err := catalog.NewWatcher(root, d.opts.Daemon.Watch.Debounce.Duration(), d.logger)
	if err != nil {
		return err
	}
	w.SetChangeCallback(func(paths []string) {
		if engine := d.opts.Engine; engine != nil {
			for _, p := range paths {
				engine.Invalidate(d.lister.ResourcePath(p))
			}
		}
		d.rescan(ctx)
	})
	if err := w.Start(); err != nil {
		return err
	}
	d.vault = w
	return nil
}

func (d *Daemon) rescan(ctx context.Context) {
	board := d.Board()
	if board == nil {
		return
	}
	err := board.Rescan(ctx)
	switch {
	case err == nil:
		d.reportFolderErrors(board)
	case errors.Is(err, soundboard.ErrSuperseded), ctx.Err() != nil:
	default:
		d.logger.Warn("failed to rescan vault", "error", err)
	}
}

// applyConfig swaps the widget set when the configured folders changed.
// Vault path changes need a restart.
func (d *Daemon) applyConfig(ctx context.Context, change ConfigChange) {
	d.mu.Lock()
	d.cfg = change.New
	board := d.board
	d.mu.Unlock()

	if change.VaultChanged {
		d.logger.Warn("vault path changed; restart soundboardd to apply",
			"old", change.Old.Vault.Path, "new", change.New.Vault.Path)
	}
	if change.VolumeChanged {
		d.logger.Info("default volume applies to widgets created after restart")
	}
	if !change.FoldersChanged {
		d.logger.Debug("folders unchanged, keeping widgets")
		return
	}

	folders := change.New.StatusBarFolders()
	if err := board.Load(ctx, folders); err != nil {
		if !errors.Is(err, soundboard.ErrSuperseded) && ctx.Err() == nil {
			d.logger.Error("failed to reload widgets", "error", err)
			d.opts.Notifier.NotifyConfigError(err)
		}
		return
	}
	d.reportFolderErrors(board)
	d.opts.Notifier.NotifyConfigReloaded(len(folders))
}

func (d *Daemon) reportFolderErrors(board *soundboard.Board) {
	for _, w := range board.Widgets() {
		if w.Err != nil {
			d.opts.Notifier.NotifyFolderError(w.Folder.Path, w.Err)
		}
	}
}

func (d *Daemon) watchPlayback(ctx context.Context, changes <-chan soundboard.WidgetChange) {
	defer d.wg.Done()
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Err != nil {
				d.opts.Notifier.NotifyPlaybackError(change.Index, change.Err)
			}
		case <-ctx.Done():
			return
		}
	}
}
