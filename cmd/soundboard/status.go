package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/dbus"
	"github.com/jmylchreest/localsoundboard/internal/soundboard"
)

var statusOpts struct {
	widget int
	watch  bool
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the soundboard status in Waybar's custom module JSON format.

The status is read from a running soundboardd. By default every soundboard is
summarised; --widget focuses one of them, which suits one Waybar module per
configured folder.

This is designed to be used with Waybar's custom module:

  "custom/soundboard-sfx": {
    "exec": "soundboard status --widget 1 --watch",
    "return-type": "json",
    "on-click": "soundboard ctl toggle 1",
    "on-click-right": "soundboard tui",
    "on-scroll-up": "soundboard ctl volume 1 +0.1",
    "on-scroll-down": "soundboard ctl volume 1 -0.1"
  }

The output includes:
  - text: State glyph and the selected track
  - alt/class: playing, ready, idle, empty or error
  - tooltip: One line per soundboard
  - percentage: Volume of the focused soundboard`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVarP(&statusOpts.widget, "widget", "w", 0,
		"Focus one soundboard by its 1-based position (0=all)")
	statusCmd.Flags().BoolVar(&statusOpts.watch, "watch", false,
		"Print a new line on every state change instead of exiting")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return outputStatus(os.Stdout, errorStatus(err))
	}

	if err := printStatus(client); err != nil || !statusOpts.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = client.Watch(ctx, func(dbus.StateChanged) {
		_ = printStatus(client)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return outputStatus(os.Stdout, errorStatus(err))
	}
	return nil
}

// printStatus queries the daemon and prints one status line.
// Errors are printed as an error status and returned.
func printStatus(client *dbus.Client) error {
	statuses, err := client.Status()
	if err != nil {
		_ = outputStatus(os.Stdout, errorStatus(err))
		return err
	}
	return outputStatus(os.Stdout, generateStatus(statuses, statusOpts.widget))
}

func errorStatus(err error) WaybarStatus {
	tooltip := err.Error()
	if errors.Is(err, dbus.ErrServiceUnavailable) {
		tooltip = "soundboardd is not running"
	}
	return WaybarStatus{Text: "", Alt: "error", Tooltip: tooltip, Class: "error"}
}

// generateStatus summarises the widgets. A positive widget focuses that widget.
func generateStatus(statuses []soundboard.WidgetStatus, widget int) WaybarStatus {
	if widget > 0 {
		if widget > len(statuses) {
			return WaybarStatus{
				Alt:     "error",
				Tooltip: fmt.Sprintf("No soundboard %d", widget),
				Class:   "error",
			}
		}
		s := statuses[widget-1]
		class := widgetClass(s)
		return WaybarStatus{
			Text:       widgetText(s),
			Alt:        class,
			Tooltip:    widgetTooltip(s),
			Class:      class,
			Percentage: volumePercent(s.Volume),
		}
	}

	if len(statuses) == 0 {
		return WaybarStatus{
			Text:    "",
			Alt:     "empty",
			Tooltip: "No soundboards",
			Class:   "empty",
		}
	}

	// Playing beats ready beats idle.
	focus := statuses[0]
	var playing []soundboard.WidgetStatus
	for _, s := range statuses {
		switch {
		case s.State == "playing":
			playing = append(playing, s)
		case s.State == "ready" && focus.State == "idle":
			focus = s
		}
	}
	if len(playing) > 0 {
		focus = playing[0]
	}

	text := ""
	if focus.State == "playing" {
		text = widgetText(focus)
		if len(playing) > 1 {
			text += fmt.Sprintf(" +%d", len(playing)-1)
		}
	}

	lines := make([]string, len(statuses))
	for i, s := range statuses {
		lines[i] = widgetTooltip(s)
	}

	class := widgetClass(focus)
	if class == "empty" {
		class = "idle"
	}
	return WaybarStatus{
		Text:       text,
		Alt:        class,
		Tooltip:    strings.Join(lines, "\n"),
		Class:      class,
		Percentage: volumePercent(focus.Volume),
	}
}

func widgetClass(s soundboard.WidgetStatus) string {
	switch {
	case s.Error != "":
		return "error"
	case s.Tracks == 0:
		return "empty"
	default:
		return s.State
	}
}

func widgetText(s soundboard.WidgetStatus) string {
	if s.Title == "" {
		return ""
	}
	switch s.State {
	case "playing":
		return "▶ " + s.Title
	case "ready":
		return "■ " + s.Title
	default:
		return ""
	}
}

func widgetTooltip(s soundboard.WidgetStatus) string {
	switch {
	case s.Error != "":
		return s.Name + ": Error loading audio files: " + s.Error
	case s.Tracks == 0:
		return s.Name + ": No audio files found in the specified folder."
	case s.Title == "":
		return fmt.Sprintf("%s: no track selected (%d%%)", s.Name, volumePercent(s.Volume))
	default:
		return fmt.Sprintf("%s: %s (%s, %d%%)", s.Name, s.Title, s.State, volumePercent(s.Volume))
	}
}

func volumePercent(v float64) int {
	return int(math.Round(v * 100))
}

// outputStatus writes the status as JSON.
func outputStatus(w io.Writer, status WaybarStatus) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(status)
}
