package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/audio"
	"github.com/jmylchreest/localsoundboard/internal/block"
	"github.com/jmylchreest/localsoundboard/internal/config"
	"github.com/jmylchreest/localsoundboard/internal/model"
	"github.com/jmylchreest/localsoundboard/internal/player"
	"github.com/jmylchreest/localsoundboard/internal/soundboard"
	"github.com/jmylchreest/localsoundboard/internal/tui"
)

var tuiOpts struct {
	note   string
	silent bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive soundboard",
	Long: `Launch the interactive terminal soundboard.

Without --note, one soundboard is shown per configured folder. With --note,
one soundboard is shown per local-soundboard block found in the note, the way
the note renders them.

Key bindings:
  j/k, ↑/↓    Navigate soundboards
  enter       Pick a track
  space/p     Play or stop the selected track
  +/-         Change volume
  x           Clear the selection
  s           Stop all soundboards
  r           Refresh audio files
  c           Copy a block for the folder to the clipboard
  /           Search tracks (in the picker)
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiOpts.note, "note", "",
		"Markdown note whose local-soundboard blocks to open")
	tuiCmd.Flags().BoolVar(&tuiOpts.silent, "silent", false,
		"Drive the soundboards without audio output")
}

func runTUI(cmd *cobra.Command, args []string) error {
	folders := cfg.Folders
	volume := cfg.Playback.DefaultVolume
	title := "Soundboard"

	if tuiOpts.note != "" {
		var err error
		folders, err = noteFolders(tuiOpts.note)
		if err != nil {
			return err
		}
		volume = config.DefaultBlockVolume
		title = tuiOpts.note
	}

	lister, err := newLister()
	if err != nil {
		return err
	}

	var newOutput soundboard.OutputFactory
	if !tuiOpts.silent {
		engine := audio.NewEngine(logger)
		defer engine.Close()
		newOutput = func(loop bool) player.Output {
			return engine.NewOutput(loop)
		}
	}

	board := soundboard.New(soundboard.Options{
		Lister:       lister,
		NewOutput:    newOutput,
		ResourcePath: lister.ResourcePath,
		Volume:       volume,
		Logger:       logger,
	})
	defer board.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	err = board.Load(ctx, folders)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to load soundboards: %w", err)
	}

	return tui.Run(tui.RunOptions{
		Board: board,
		Options: tui.Options{
			Title:            title,
			VolumeStep:       cfg.Playback.VolumeStep,
			ClipboardCommand: cfg.Clipboard.Command,
		},
	})
}

// noteFolders reads the soundboard blocks of a note. Invalid blocks are
// reported and skipped.
func noteFolders(path string) ([]model.Folder, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}

	var folders []model.Folder
	for _, b := range block.Extract(source) {
		if b.Err != nil {
			fmt.Fprintf(os.Stderr, "%s:%d: %s\n", path, b.Line, block.MissingFolderHelp)
			continue
		}
		folders = append(folders, b.ToFolder())
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("no %s blocks found in %s", block.Language, path)
	}
	return folders, nil
}
