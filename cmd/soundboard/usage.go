package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const usageGuide = `# Local Soundboard

Soundboards play the audio files kept in the folders of a notes vault.

## Status bar

Add folders to the config file, then run **soundboardd**:

` + "```sh" + `
soundboard folders add Audio/SFX --name SFX --icon zap
soundboard folders add Audio/Ambience --name Ambience --loop
soundboardd &
` + "```" + `

Each folder becomes one soundboard. Control them with ` + "`soundboard ctl`" + ` or show them in
Waybar with ` + "`soundboard status --widget N --watch`" + `.

## Blocks in notes

Put a block in any note:

` + "````markdown" + `
` + "```" + `local-soundboard
folder: Audio/SFX
title: Sound effects
loop: false
` + "```" + `
` + "````" + `

| Key      | Meaning                                          |
|----------|--------------------------------------------------|
| folder   | Vault folder to list (required)                  |
| title    | Heading, default "Soundboard: <folder>"          |
| icon     | Symbolic icon name                               |
| loop     | "true" repeats the track until stopped           |

Open the note's soundboards with ` + "`soundboard tui --note Notes/Session.md`" + `.
Render a block with ` + "`soundboard block new Audio/SFX`" + `.

## Playback

- Selecting a track never starts it; press **space** to play and again to stop.
- Stopping rewinds to the start.
- Without loop, a finished track clears the selection; play again to replay it.
- **s** (or ` + "`soundboard ctl stop`" + `) stops every soundboard.
- **r** (or ` + "`soundboard ctl refresh`" + `) stops everything and rescans the folders.

Supported files: mp3, wav, ogg, flac (webm, m4a and aac are listed but cannot be decoded).
`

var usageOpts struct {
	width int
	raw   bool
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show the usage guide",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if usageOpts.raw {
			_, err := fmt.Fprint(cmd.OutOrStdout(), usageGuide)
			return err
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(usageOpts.width),
		)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		out, err := r.Render(usageGuide)
		if err != nil {
			return fmt.Errorf("failed to render usage: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().IntVar(&usageOpts.width, "width", 80,
		"Wrap width")
	usageCmd.Flags().BoolVar(&usageOpts.raw, "raw", false,
		"Print the Markdown source")
}
