package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var foldersOpts struct {
	name string
	icon string
	loop bool
}

// foldersCmd represents the folders command group.
var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Manage the status-bar soundboard folders",
	Long: `Manage the [[folders]] of the config file. Each folder becomes one
soundboard in the status bar; soundboardd picks up changes automatically.

The same path may be added more than once; each entry is its own soundboard.`,
	RunE: runFoldersList,
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured folders",
	RunE:  runFoldersList,
}

var foldersAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Add a folder",
	Long: `Add a vault folder. Unless --loop is given, the folder loops when
playback.auto_loop is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runFoldersAdd,
}

var foldersRemoveCmd = &cobra.Command{
	Use:     "remove <index>",
	Aliases: []string{"rm"},
	Short:   "Remove a folder by its 1-based position",
	Args:    cobra.ExactArgs(1),
	RunE:    runFoldersRemove,
}

func init() {
	foldersCmd.AddCommand(foldersListCmd)
	foldersCmd.AddCommand(foldersAddCmd)
	foldersCmd.AddCommand(foldersRemoveCmd)
	rootCmd.AddCommand(foldersCmd)

	foldersAddCmd.Flags().StringVar(&foldersOpts.name, "name", "",
		"Display name (default: the path)")
	foldersAddCmd.Flags().StringVar(&foldersOpts.icon, "icon", "",
		"Symbolic icon name for the status bar")
	foldersAddCmd.Flags().BoolVar(&foldersOpts.loop, "loop", false,
		"Repeat tracks until stopped")
}

func runFoldersList(cmd *cobra.Command, args []string) error {
	if len(cfg.Folders) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No folders configured. Add one with 'soundboard folders add <path>'.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "NAME", "PATH", "LOOP", "ICON")
	for i, f := range cfg.Folders {
		t.Row(strconv.Itoa(i+1), f.DisplayName(), f.Path, strconv.FormatBool(f.Loop), f.IconName())
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}

func runFoldersAdd(cmd *cobra.Command, args []string) error {
	var loop *bool
	if cmd.Flags().Changed("loop") {
		loop = &foldersOpts.loop
	}

	f, err := cfg.AddFolder(foldersOpts.name, args[0], foldersOpts.icon, loop)
	if err != nil {
		return err
	}
	if err := cfg.Save(configPath()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added folder %d: %s (%s)\n", len(cfg.Folders), f.DisplayName(), f.Path)
	return nil
}

func runFoldersRemove(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[0], err)
	}

	f, err := cfg.RemoveFolder(index)
	if err != nil {
		return err
	}
	if err := cfg.Save(configPath()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed folder %d: %s (%s)\n", index, f.DisplayName(), f.Path)
	return nil
}
