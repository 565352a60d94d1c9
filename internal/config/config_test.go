package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.InDelta(t, 0.5, cfg.Playback.DefaultVolume, 1e-9)
	assert.InDelta(t, 0.1, cfg.Playback.VolumeStep, 1e-9)
	assert.False(t, cfg.Playback.AutoLoop)
	assert.True(t, cfg.StatusBar.Enabled)
	assert.Empty(t, cfg.Folders)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[vault]
path = "/home/me/Notes"

[playback]
default_volume = 0.8
auto_loop = true

[status_bar]
enabled = false

[[folders]]
name = "SFX"
path = "Audio/SFX"
icon = "zap"

[[folders]]
name = "Ambience"
path = "Audio/Ambience"
loop = true

[[folders]]
name = "SFX again"
path = "Audio/SFX"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/home/me/Notes", cfg.Vault.Path)
	assert.InDelta(t, 0.8, cfg.Playback.DefaultVolume, 1e-9)
	assert.InDelta(t, DefaultVolumeStep, cfg.Playback.VolumeStep, 1e-9, "unset keys keep defaults")
	assert.True(t, cfg.Playback.AutoLoop)
	assert.False(t, cfg.StatusBar.Enabled)

	require.Len(t, cfg.Folders, 3)
	assert.Equal(t, model.Folder{Name: "SFX", Path: "Audio/SFX", Icon: "zap"}, cfg.Folders[0])
	assert.True(t, cfg.Folders[1].Loop)
	assert.Equal(t, cfg.Folders[0].Path, cfg.Folders[2].Path, "duplicate paths are legal")

	assert.Empty(t, cfg.StatusBarFolders(), "status bar disabled")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad toml", "[playback\n", "failed to parse"},
		{"volume too high", "[playback]\ndefault_volume = 1.5\n", "default_volume"},
		{"volume negative", "[playback]\ndefault_volume = -0.1\n", "default_volume"},
		{"zero step", "[playback]\nvolume_step = 0.0\n", "volume_step"},
		{"empty folder path", "[[folders]]\nname = \"x\"\npath = \"  \"\n", "folders[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Vault.Path = "~/Notes"
	_, err := cfg.AddFolder("SFX", "Audio/SFX", "zap", nil)
	require.NoError(t, err)
	require.NoError(t, cfg.Save(path))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/localsoundboard/config.toml", ConfigPath())
	assert.Equal(t, "/tmp/xdg/localsoundboard/soundboardd.toml", DaemonConfigPath())
}

func TestConfig_AddFolder(t *testing.T) {
	cfg := DefaultConfig()

	f, err := cfg.AddFolder(" SFX ", "Audio/SFX", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "SFX", f.Name)
	assert.False(t, f.Loop)

	cfg.Playback.AutoLoop = true
	f, err = cfg.AddFolder("Ambience", "Audio/Ambience", "", nil)
	require.NoError(t, err)
	assert.True(t, f.Loop, "auto_loop is the default")

	noLoop := false
	f, err = cfg.AddFolder("Ambience once", "Audio/Ambience", "", &noLoop)
	require.NoError(t, err)
	assert.False(t, f.Loop, "explicit flag wins")

	_, err = cfg.AddFolder("Empty", "", "", nil)
	assert.ErrorIs(t, err, model.ErrEmptyFolderPath)

	assert.Len(t, cfg.Folders, 3)
}

func TestConfig_RemoveFolder(t *testing.T) {
	cfg := DefaultConfig()
	_, _ = cfg.AddFolder("A", "a", "", nil)
	_, _ = cfg.AddFolder("B", "b", "", nil)

	removed, err := cfg.RemoveFolder(1)
	require.NoError(t, err)
	assert.Equal(t, "A", removed.Name)
	require.Len(t, cfg.Folders, 1)
	assert.Equal(t, "B", cfg.Folders[0].Name)

	_, err = cfg.RemoveFolder(5)
	assert.ErrorIs(t, err, ErrFolderNotConfigured)
	_, err = cfg.RemoveFolder(0)
	assert.ErrorIs(t, err, ErrFolderNotConfigured)
}

func TestConfig_StatusBarFoldersIsCopy(t *testing.T) {
	cfg := DefaultConfig()
	_, _ = cfg.AddFolder("A", "a", "", nil)

	folders := cfg.StatusBarFolders()
	folders[0].Name = "changed"
	assert.Equal(t, "A", cfg.Folders[0].Name)
}

func TestConfig_VaultPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Vault.Path = "~/Notes"
	p, err := cfg.VaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Notes"), p)

	cfg.Vault.Path = ""
	p, err = cfg.VaultPath()
	require.NoError(t, err)
	wd, _ := os.Getwd()
	assert.Equal(t, wd, p)
}
