// Package main provides the CLI entrypoint for soundboard.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		vaultPath  string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "soundboard",
	Short: "Folder-backed audio soundboards for a notes vault",
	Long: `soundboard plays the audio files kept in the folders of a notes vault.

Each soundboard is bound to one folder. It lists the audio files below it
(mp3, wav, ogg, webm, m4a, flac, aac) sorted by name, and lets you pick a
track, play or stop it and change its volume.

Soundboards come from the [[folders]] of the config file (shown in the status
bar by soundboardd) or from local-soundboard blocks inside notes.

Running soundboard without a subcommand launches the interactive TUI.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if globalOpts.vaultPath != "" {
			cfg.Vault.Path = globalOpts.vaultPath
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/localsoundboard/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.vaultPath, "vault", "",
		"Path to the notes vault (overrides vault.path)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// newLister returns a lister rooted at the configured vault.
func newLister() (*catalog.VaultLister, error) {
	root, err := cfg.VaultPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	return catalog.NewVaultLister(root), nil
}

// configPath returns the config file the CLI reads and writes.
func configPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}
