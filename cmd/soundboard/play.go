package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/audio"
	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/model"
	"github.com/jmylchreest/localsoundboard/internal/player"
)

var playOpts struct {
	volume float64
	loop   bool
}

var playCmd = &cobra.Command{
	Use:   "play <folder> [track]",
	Short: "Play a track from a vault folder",
	Long: `Play one audio file of a vault folder and wait until it ends.

The track is a 1-based position (as shown by 'soundboard scan'), a vault path
or a file name with or without extension. Without a track the first file of
the folder is played.

With --loop the track repeats until interrupted with Ctrl+C.

Examples:
  soundboard play Audio/SFX 2
  soundboard play Audio/SFX Boom --volume 0.3
  soundboard play Audio/Ambience rain.flac --loop`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Float64Var(&playOpts.volume, "volume", 0,
		"Playback volume from 0 to 1 (default: playback.default_volume)")
	playCmd.Flags().BoolVar(&playOpts.loop, "loop", false,
		"Repeat the track until interrupted")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lister, err := newLister()
	if err != nil {
		return err
	}

	resolveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	assets, err := catalog.Resolve(resolveCtx, args[0], lister)
	cancel()
	if err != nil {
		return fmt.Errorf("error loading audio files: %w", err)
	}
	if len(assets) == 0 {
		return fmt.Errorf("no audio files found in the specified folder")
	}

	ref := ""
	if len(args) > 1 {
		ref = args[1]
	}
	asset, err := pickAsset(assets, ref)
	if err != nil {
		return err
	}

	volume := cfg.Playback.DefaultVolume
	if cmd.Flags().Changed("volume") {
		volume = playOpts.volume
	}

	engine := audio.NewEngine(logger)
	defer engine.Close()

	ctrl := player.NewController(engine.NewOutput(playOpts.loop), player.Options{
		Loop:         playOpts.loop,
		Volume:       volume,
		ResourcePath: lister.ResourcePath,
		Logger:       logger,
	})
	defer ctrl.Close()

	changes := ctrl.Subscribe()

	if err := ctrl.Select(asset); err != nil {
		return err
	}
	if err := ctrl.TogglePlay(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Playing %s (%s, volume %.0f%%)\n",
		asset.Path, catalog.MimeType(asset.Extension), ctrl.Volume()*100)

	for {
		select {
		case <-ctx.Done():
			return ctrl.Stop()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Err != nil {
				return change.Err
			}
			if !change.Playing {
				return nil
			}
		}
	}
}

// pickAsset finds a track by 1-based position, path or file name.
// An empty ref picks the first track.
func pickAsset(c model.Catalog, ref string) (*model.Asset, error) {
	if ref == "" {
		if a := c.LookupByIndex(1); a != nil {
			return a, nil
		}
		return nil, fmt.Errorf("folder has no tracks")
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if a := c.LookupByIndex(n); a != nil {
			return a, nil
		}
		return nil, fmt.Errorf("track %d out of range (1-%d)", n, len(c))
	}

	if a := c.Lookup(catalog.CleanPath(ref)); a != nil {
		return a, nil
	}

	for i := range c {
		if strings.EqualFold(c[i].Name(), ref) || strings.EqualFold(c[i].Basename, ref) {
			return &c[i], nil
		}
	}
	return nil, fmt.Errorf("track %q not found", ref)
}
