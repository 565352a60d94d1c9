// Package daemon provides the main orchestration for soundboardd.
// It hosts the status-bar widgets, exposes them on D-Bus, refreshes catalogs
// when the vault changes and reloads the folder list when the config file is edited.
package daemon
