package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/audio"
	"github.com/jmylchreest/localsoundboard/internal/catalog"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Show which audio extensions are listed and which can be played",
	Long: `Show every extension soundboards list, its MIME type, and whether
soundboard has a decoder for it. Files with a listed but undecodable
extension appear in pickers and report an error when played.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("EXTENSION", "MIME TYPE", "PLAYABLE")
		for _, row := range formatRows() {
			t.Row(row...)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		fmt.Fprintf(cmd.OutOrStdout(), "Decoders: %s\n", strings.Join(audio.SupportedFormats(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

// formatRows lists the extension allowlist with MIME type and decoder support.
func formatRows() [][]string {
	exts := catalog.Extensions()
	rows := make([][]string, 0, len(exts))
	for _, ext := range exts {
		playable := "no"
		if audio.CanDecode(ext) {
			playable = "yes"
		}
		rows = append(rows, []string{ext, catalog.MimeType(ext), playable})
	}
	return rows
}
