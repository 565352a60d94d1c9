package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/localsoundboard/internal/dbus"
)

// ctlCmd represents the ctl command group.
var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control the status-bar soundboards of soundboardd",
	Long: `Control the soundboards hosted by a running soundboardd over D-Bus.

Soundboards are addressed by their 1-based position in the [[folders]] list.

Use 'soundboard ctl list' to show every soundboard.
Use 'soundboard ctl track 1 3' to select the third track of the first one.
Use 'soundboard ctl toggle 1' to play or stop it.`,
	RunE: runCtlList,
}

var ctlListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every soundboard",
	RunE:  runCtlList,
}

var ctlSelectCmd = &cobra.Command{
	Use:   "select <widget> [path]",
	Short: "Select a track by vault path (no path clears the selection)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		widget, err := parseWidget(args[0])
		if err != nil {
			return err
		}
		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		return withClient(func(c *dbus.Client) error {
			return c.Select(widget, path)
		})
	},
}

var ctlTrackCmd = &cobra.Command{
	Use:   "track <widget> <n>",
	Short: "Select a track by its 1-based position (0 clears the selection)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		widget, err := parseWidget(args[0])
		if err != nil {
			return err
		}
		track, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid track %q: %w", args[1], err)
		}
		return withClient(func(c *dbus.Client) error {
			return c.SelectTrack(widget, track)
		})
	},
}

var ctlToggleCmd = &cobra.Command{
	Use:   "toggle <widget>",
	Short: "Play or stop the selected track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		widget, err := parseWidget(args[0])
		if err != nil {
			return err
		}
		return withClient(func(c *dbus.Client) error {
			return c.Toggle(widget)
		})
	},
}

var ctlVolumeCmd = &cobra.Command{
	Use:   "volume <widget> <value>",
	Short: "Set the volume (0-1), or change it with a leading + or -",
	Long: `Set a soundboard's volume. Values are clamped to 0..1.

  soundboard ctl volume 1 0.5     # set to 50%
  soundboard ctl volume 1 +0.1    # 10% louder
  soundboard ctl volume 1 -0.1    # 10% quieter`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		widget, err := parseWidget(args[0])
		if err != nil {
			return err
		}
		return withClient(func(c *dbus.Client) error {
			current := 0.0
			if isRelative(args[1]) {
				statuses, err := c.Status()
				if err != nil {
					return err
				}
				if widget > len(statuses) {
					return fmt.Errorf("no soundboard %d", widget)
				}
				current = statuses[widget-1].Volume
			}
			v, err := parseVolume(args[1], current)
			if err != nil {
				return err
			}
			return c.SetVolume(widget, v)
		})
	},
}

var ctlStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop every soundboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *dbus.Client) error {
			return c.StopAll()
		})
	},
}

var ctlRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Stop everything and rescan every folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *dbus.Client) error {
			return c.Refresh()
		})
	},
}

var ctlWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print state changes as JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withClient(func(c *dbus.Client) error {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			err := c.Watch(ctx, func(sc dbus.StateChanged) {
				_ = encoder.Encode(sc)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

func init() {
	ctlCmd.AddCommand(ctlListCmd)
	ctlCmd.AddCommand(ctlSelectCmd)
	ctlCmd.AddCommand(ctlTrackCmd)
	ctlCmd.AddCommand(ctlToggleCmd)
	ctlCmd.AddCommand(ctlVolumeCmd)
	ctlCmd.AddCommand(ctlStopCmd)
	ctlCmd.AddCommand(ctlRefreshCmd)
	ctlCmd.AddCommand(ctlWatchCmd)
	rootCmd.AddCommand(ctlCmd)

	// "1 -0.1" is a widget and a step, not a flag.
	ctlVolumeCmd.Flags().SetInterspersed(false)
}

func runCtlList(cmd *cobra.Command, args []string) error {
	return withClient(func(c *dbus.Client) error {
		statuses, err := c.Status()
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No soundboards in the status bar.")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "NAME", "STATE", "TRACK", "VOLUME", "TRACKS")
		for _, s := range statuses {
			track := s.Title
			switch {
			case s.Error != "":
				track = "error: " + s.Error
			case track == "":
				track = "-"
			}
			t.Row(
				strconv.Itoa(s.Index),
				s.Name,
				s.State,
				track,
				fmt.Sprintf("%d%%", volumePercent(s.Volume)),
				strconv.Itoa(s.Tracks),
			)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return err
	})
}

func withClient(fn func(*dbus.Client) error) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	return fn(client)
}

func parseWidget(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid soundboard %q: want a 1-based position", s)
	}
	return n, nil
}

func isRelative(s string) bool {
	return strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-")
}

// parseVolume parses an absolute volume or a +/- step applied to current.
func parseVolume(s string, current float64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: %w", s, err)
	}
	if isRelative(s) {
		v = current + v
	}
	return math.Round(v*100) / 100, nil
}
