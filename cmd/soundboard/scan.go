package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/adapter/output"
	"github.com/jmylchreest/localsoundboard/internal/audio"
	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/model"
)

var scanOpts struct {
	search   string
	limit    int
	format   string
	template string
	mime     bool
	playable bool
}

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "List the audio files of a vault folder",
	Long: `List the audio files found below a vault folder, in the order a
soundboard shows them.

Files are matched by extension (mp3, wav, ogg, webm, m4a, flac, aac; any case)
and sorted by name using locale collation, ties broken by path. Hidden entries
such as .obsidian or .trash are skipped.

Examples:
  # List a folder in dmenu format
  soundboard scan Audio/SFX

  # Output as JSON with MIME types
  soundboard scan Audio/SFX --format json

  # Pick a track with fuzzel and play it
  soundboard play Audio/SFX "$(soundboard scan Audio/SFX -f paths | fuzzel -d)"`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanOpts.search, "search", "s", "",
		"Only list files whose name or path contains this text")
	scanCmd.Flags().IntVarP(&scanOpts.limit, "limit", "n", 0,
		"Maximum number of files to show (0=unlimited)")
	scanCmd.Flags().StringVarP(&scanOpts.format, "format", "f", "dmenu",
		"Output format (plain, dmenu, json, yaml, paths)")
	scanCmd.Flags().StringVar(&scanOpts.template, "template", "",
		"Custom Go template for dmenu/plain output")
	scanCmd.Flags().BoolVar(&scanOpts.mime, "mime", false,
		"Show MIME types")
	scanCmd.Flags().BoolVar(&scanOpts.playable, "playable", false,
		"Only list files soundboard can decode")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	format, err := parseFormat(scanOpts.format)
	if err != nil {
		return err
	}

	lister, err := newLister()
	if err != nil {
		return err
	}

	assets, err := catalog.Resolve(ctx, args[0], lister)
	if err != nil {
		return fmt.Errorf("error loading audio files: %w", err)
	}

	assets = assets.Search(scanOpts.search)

	playable, undecodable := splitPlayable(assets)
	if len(undecodable) > 0 {
		fmt.Fprintf(os.Stderr, "%d file(s) are listed but cannot be played (%s); see 'soundboard formats'\n",
			len(undecodable), strings.Join(extensionsOf(undecodable), ", "))
	}
	if scanOpts.playable {
		assets = playable
	}
	if scanOpts.limit > 0 && len(assets) > scanOpts.limit {
		assets = assets[:scanOpts.limit]
	}

	if len(assets) == 0 {
		fmt.Fprintln(os.Stderr, "No audio files found in the specified folder.")
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = scanOpts.template
	opts.ShowMime = scanOpts.mime
	return output.NewFormatter(format, opts).Format(cmd.OutOrStdout(), assets)
}

// splitPlayable separates assets the audio engine can decode from the rest,
// keeping catalog order.
func splitPlayable(assets model.Catalog) (playable, undecodable model.Catalog) {
	for _, a := range assets {
		if audio.CanDecode(a.Extension) {
			playable = append(playable, a)
		} else {
			undecodable = append(undecodable, a)
		}
	}
	return playable, undecodable
}

// extensionsOf returns the distinct lower-case extensions of assets, sorted.
func extensionsOf(assets model.Catalog) []string {
	var exts []string
	for _, a := range assets {
		ext := strings.ToLower(a.Extension)
		if !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}

// parseFormat validates a --format value.
func parseFormat(s string) (output.FormatType, error) {
	for _, f := range output.FormatTypes() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (valid: plain, dmenu, json, yaml, paths)", s)
}
