// Package main is the entry point for the soundboardd status-bar daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/localsoundboard/internal/audio"
	"github.com/jmylchreest/localsoundboard/internal/config"
	"github.com/jmylchreest/localsoundboard/internal/daemon"
	"github.com/jmylchreest/localsoundboard/internal/dbus"
)

const appName = "soundboardd"

var (
	// Build-time variables
	version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config.toml (default: ~/.config/localsoundboard/config.toml)")
	daemonConfigPath := flag.String("daemon-config", "", "Path to soundboardd.toml (default: ~/.config/localsoundboard/soundboardd.toml)")
	silent := flag.Bool("silent", false, "Drive the soundboards without audio output")
	noNotify := flag.Bool("no-notify", false, "Do not send desktop notifications")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if err := run(logger, *configPath, *daemonConfigPath, *silent, *noNotify); err != nil {
		logger.Error("soundboardd failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, daemonConfigPath string, silent, noNotify bool) error {
	logger.Info("starting soundboardd", "version", version)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dcfg, err := config.LoadDaemonConfig(daemonConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load daemon config: %w", err)
	}

	var engine *audio.Engine
	if !silent {
		engine = audio.NewEngine(logger)
		defer engine.Close()
	}

	notifier := daemon.NewNotifier(dbus.SendNotice, logger)
	notifier.SetEnabled(!noNotify)

	d := daemon.New(daemon.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Daemon:     dcfg,
		Engine:     engine,
		Notifier:   notifier,
		Logger:     logger,
	})

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		return err
	}

	logger.Info("soundboardd stopped")
	return nil
}
