package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/localsoundboard/internal/dbus"
)

// NotificationLevel indicates the severity of a notice.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// Notifier surfaces daemon events to the user as desktop notices.
// Repeats of the same key within minInterval are dropped.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	send func(dbus.Notice) error

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewNotifier creates a Notifier that delivers notices with send.
// A nil send only logs.
func NewNotifier(send func(dbus.Notice) error, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:         logger,
		send:           send,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetEnabled enables or disables notices.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notices.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notice unless it is rate-limited.
func (n *Notifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("notice rate-limited", "key", key, "summary", summary)
		return
	}
	n.lastNotifyTime[key] = now
	send := n.send
	n.mu.Unlock()

	notice := dbus.Notice{
		AppName: "soundboardd",
		Summary: summary,
		Body:    body,
		Timeout: 5 * time.Second,
	}
	switch level {
	case NotificationLevelInfo:
		notice.Urgency, notice.Icon = 0, "dialog-information"
	case NotificationLevelWarning:
		notice.Urgency, notice.Icon = 1, "dialog-warning"
	case NotificationLevelError:
		notice.Urgency, notice.Icon = 2, "dialog-error"
	}

	n.logger.Debug("sending notice", "key", key, "summary", summary, "level", level)
	if send == nil {
		return
	}
	if err := send(notice); err != nil {
		n.logger.Warn("failed to send notice", "key", key, "error", err)
	}
}

// NotifyConfigReloaded reports a successful config reload.
func (n *Notifier) NotifyConfigReloaded(folders int) {
	n.Notify(
		"config-reload",
		"Soundboard Reloaded",
		fmt.Sprintf("Configuration reloaded with %d folder(s).", folders),
		NotificationLevelInfo,
	)
}

// NotifyConfigError reports a config file that failed to load.
func (n *Notifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyFolderError reports a folder whose audio files could not be listed.
func (n *Notifier) NotifyFolderError(folder string, err error) {
	n.Notify(
		"folder-error:"+folder,
		"Error loading audio files",
		err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyPlaybackError reports an asset that failed to play.
func (n *Notifier) NotifyPlaybackError(widget int, err error) {
	n.Notify(
		fmt.Sprintf("playback-error:%d", widget),
		"Playback Error",
		err.Error(),
		NotificationLevelError,
	)
}
