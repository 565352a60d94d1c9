package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/localsoundboard/internal/config"
	"github.com/jmylchreest/localsoundboard/internal/model"
	"github.com/jmylchreest/localsoundboard/internal/player"
)

func writeVaultFile(t *testing.T, vault, rel string) {
	t.Helper()
	p := filepath.Join(vault, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

type daemonFixture struct {
	*Daemon
	vault      string
	configPath string
	notices    *noticeRecorder
}

func newDaemonFixture(t *testing.T) *daemonFixture {
	t.Helper()

	vault := t.TempDir()
	writeVaultFile(t, vault, "Audio/SFX/zap.mp3")
	writeVaultFile(t, vault, "Audio/SFX/alarm.ogg")
	writeVaultFile(t, vault, "Audio/Ambience/rain.flac")

	cfg := config.DefaultConfig()
	cfg.Vault.Path = vault
	cfg.Folders = []model.Folder{
		{Name: "SFX", Path: "Audio/SFX"},
		{Name: "Missing", Path: "Audio/Nope"},
	}

	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.Save(configPath))

	dc := config.DefaultDaemonConfig()
	dc.DBus.Enabled = false
	dc.Watch.Debounce = config.Duration(20 * time.Millisecond)
	dc.Reload.PollInterval = config.Duration(20 * time.Millisecond)

	rec := &noticeRecorder{}
	notifier := NewNotifier(rec.send, nil)
	notifier.SetMinInterval(0)

	d := New(Options{
		Config:     cfg,
		ConfigPath: configPath,
		Daemon:     dc,
		Notifier:   notifier,
	})
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)

	return &daemonFixture{Daemon: d, vault: vault, configPath: configPath, notices: rec}
}

func TestDaemon_StartBuildsWidgets(t *testing.T) {
	f := newDaemonFixture(t)

	widgets := f.Board().Widgets()
	require.Len(t, widgets, 2)
	assert.Equal(t, []string{"alarm", "zap"}, widgets[0].Catalog.Names())
	assert.InDelta(t, 0.5, widgets[0].Controller.Volume(), 1e-9)

	assert.Error(t, widgets[1].Err)
	assert.Contains(t, f.notices.summaries(), "Error loading audio files")
}

func TestDaemon_ControlsWidgetsSilently(t *testing.T) {
	f := newDaemonFixture(t)
	board := f.Board()

	require.NoError(t, board.SelectTrack(1, 2))
	require.NoError(t, board.Toggle(1))

	w, err := board.Widget(1)
	require.NoError(t, err)
	assert.Equal(t, player.StatePlaying, w.Controller.State())
	assert.Equal(t, "Audio/SFX/zap.mp3", w.Controller.Selected().Path)
}

func TestDaemon_VaultChangeRescans(t *testing.T) {
	f := newDaemonFixture(t)
	board := f.Board()

	require.NoError(t, board.SelectTrack(1, 1))
	require.NoError(t, board.Toggle(1))

	writeVaultFile(t, f.vault, "Audio/SFX/Boom.wav")

	require.Eventually(t, func() bool {
		w, err := board.Widget(1)
		return err == nil && len(w.Catalog) == 3
	}, 3*time.Second, 20*time.Millisecond)

	w, err := board.Widget(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"alarm", "Boom", "zap"}, w.Catalog.Names())
	assert.Equal(t, player.StatePlaying, w.Controller.State(), "vault changes do not stop playback")
}

func TestDaemon_ConfigReload(t *testing.T) {
	f := newDaemonFixture(t)

	cfg := *f.Config()
	cfg.Folders = []model.Folder{
		{Name: "SFX", Path: "Audio/SFX"},
		{Name: "Ambience", Path: "Audio/Ambience", Loop: true},
	}
	require.NoError(t, cfg.Save(f.configPath))
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(f.configPath, future, future))

	require.Eventually(t, func() bool {
		widgets := f.Board().Widgets()
		return len(widgets) == 2 && widgets[1].Folder.Path == "Audio/Ambience"
	}, 3*time.Second, 20*time.Millisecond)

	widgets := f.Board().Widgets()
	assert.True(t, widgets[1].Controller.Loop())
	assert.Equal(t, []string{"rain"}, widgets[1].Catalog.Names())
	assert.Eventually(t, func() bool {
		for _, s := range f.notices.summaries() {
			if s == "Soundboard Reloaded" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestDaemon_StatusBarDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Vault.Path = t.TempDir()
	cfg.StatusBar.Enabled = false
	cfg.Folders = []model.Folder{{Name: "SFX", Path: "Audio/SFX"}}

	dc := config.DefaultDaemonConfig()
	dc.DBus.Enabled = false
	dc.Watch.Enabled = false
	dc.Reload.PollInterval = 0

	d := New(Options{Config: cfg, Daemon: dc})
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	assert.Empty(t, d.Board().Widgets())
}

func TestDaemon_RunStopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Vault.Path = t.TempDir()

	dc := config.DefaultDaemonConfig()
	dc.DBus.Enabled = false
	dc.Watch.Enabled = false
	dc.Reload.PollInterval = 0

	d := New(Options{Config: cfg, Daemon: dc})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.Board() != nil }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
