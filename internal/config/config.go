// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

// Default configuration values.
const (
	DefaultVolume      = 0.5
	DefaultBlockVolume = 1.0
	DefaultVolumeStep  = 0.1
	AppName            = "localsoundboard"
)

// ErrFolderNotConfigured is returned when removing a folder that is not in the configuration.
var ErrFolderNotConfigured = errors.New("folder not configured")

// Config represents the soundboard configuration.
type Config struct {
	Vault     VaultConfig     `toml:"vault"`
	Playback  PlaybackConfig  `toml:"playback"`
	StatusBar StatusBarConfig `toml:"status_bar"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Folders   []model.Folder  `toml:"folders"`
}

// VaultConfig locates the notes vault.
type VaultConfig struct {
	Path string `toml:"path"` // ~ is expanded; empty = current directory
}

// PlaybackConfig holds playback defaults.
type PlaybackConfig struct {
	DefaultVolume float64 `toml:"default_volume"` // Initial volume of status-bar widgets
	AutoLoop      bool    `toml:"auto_loop"`      // Loop default for newly added folders
	VolumeStep    float64 `toml:"volume_step"`    // Increment for volume keys
}

// StatusBarConfig holds status-bar settings.
type StatusBarConfig struct {
	Enabled bool `toml:"enabled"`
}

// ClipboardConfig configures clipboard access from the TUI.
type ClipboardConfig struct {
	Command string `toml:"command"` // Auto-detected if empty
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			DefaultVolume: DefaultVolume,
			AutoLoop:      false,
			VolumeStep:    DefaultVolumeStep,
		},
		StatusBar: StatusBarConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed and writes atomically via a temp file.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Playback.DefaultVolume < 0 || c.Playback.DefaultVolume > 1 {
		return fmt.Errorf("default_volume must be between 0 and 1, got %v", c.Playback.DefaultVolume)
	}
	if c.Playback.VolumeStep <= 0 || c.Playback.VolumeStep > 1 {
		return fmt.Errorf("volume_step must be in (0, 1], got %v", c.Playback.VolumeStep)
	}
	for i, f := range c.Folders {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("folders[%d]: %w", i, err)
		}
	}
	return nil
}

// VaultPath returns the absolute vault root with ~ expanded.
func (c *Config) VaultPath() (string, error) {
	p := expandPath(c.Vault.Path)
	if p == "" {
		p = "."
	}
	return filepath.Abs(p)
}

// StatusBarFolders returns the folders hosted in the status bar, or none when it is disabled.
func (c *Config) StatusBarFolders() []model.Folder {
	if !c.StatusBar.Enabled {
		return nil
	}
	return slices.Clone(c.Folders)
}

// AddFolder appends a folder. The loop flag defaults to playback.auto_loop
// unless loop is non-nil. Duplicate paths are allowed.
func (c *Config) AddFolder(name, path, icon string, loop *bool) (model.Folder, error) {
	f := model.Folder{
		Name: strings.TrimSpace(name),
		Path: strings.TrimSpace(path),
		Loop: c.Playback.AutoLoop,
		Icon: strings.TrimSpace(icon),
	}
	if loop != nil {
		f.Loop = *loop
	}
	if err := f.Validate(); err != nil {
		return model.Folder{}, err
	}

	c.Folders = append(c.Folders, f)
	return f, nil
}

// RemoveFolder removes the folder at the given 1-based position.
func (c *Config) RemoveFolder(index int) (model.Folder, error) {
	if index < 1 || index > len(c.Folders) {
		return model.Folder{}, fmt.Errorf("%w: index %d (have %d)", ErrFolderNotConfigured, index, len(c.Folders))
	}
	removed := c.Folders[index-1]
	c.Folders = slices.Delete(c.Folders, index-1, index)
	return removed, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
