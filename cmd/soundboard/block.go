package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/block"
)

var blockOpts struct {
	appendTo string
}

// blockCmd represents the block command group.
var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Create and inspect local-soundboard blocks",
	Long: `Create and inspect the local-soundboard blocks embedded in notes.

A block is a fenced code block of "key: value" lines:

  ` + "```" + `local-soundboard
  folder: Audio/SFX
  title: Sound effects
  loop: true
  ` + "```" + `

Use 'soundboard block new' to render a block for a folder.
Use 'soundboard block list' to show the blocks of a note.`,
}

var blockNewCmd = &cobra.Command{
	Use:   "new <folder> [audio-file]",
	Short: "Render a block for a folder",
	Long: `Render a local-soundboard block for a vault folder.

When an audio file is given the block title is its name without extension.
With --append the block is appended to a note instead of printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBlockNew,
}

var blockListCmd = &cobra.Command{
	Use:   "list <note>",
	Short: "List the blocks of a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlockList,
}

func init() {
	blockCmd.AddCommand(blockNewCmd)
	blockCmd.AddCommand(blockListCmd)
	rootCmd.AddCommand(blockCmd)

	blockNewCmd.Flags().StringVar(&blockOpts.appendTo, "append", "",
		"Append the block to this note")
}

func runBlockNew(cmd *cobra.Command, args []string) error {
	audioPath := ""
	if len(args) > 1 {
		audioPath = args[1]
	}
	text := block.Format(args[0], audioPath)

	if blockOpts.appendTo == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}

	f, err := os.OpenFile(blockOpts.appendTo, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open note: %w", err)
	}
	if _, err := fmt.Fprint(f, "\n"+text); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append block: %w", err)
	}
	return f.Close()
}

func runBlockList(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read note: %w", err)
	}

	blocks := block.Extract(source)
	if len(blocks) == 0 {
		fmt.Fprintln(os.Stderr, "No soundboard blocks found.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LINE", "FOLDER", "TITLE", "LOOP", "ICON")
	for _, b := range blocks {
		line := strconv.Itoa(b.Line)
		if b.Err != nil {
			t.Row(line, "-", block.MissingFolderHelp, "-", "-")
			continue
		}
		icon := b.Icon
		if icon == "" {
			icon = "-"
		}
		t.Row(line, b.Folder, b.DisplayTitle(), strconv.FormatBool(b.Loop), icon)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}
