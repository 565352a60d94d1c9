package model

import (
	"errors"
	"strings"
)

// DefaultIcon is the symbolic icon name used when a folder has none.
const DefaultIcon = "folder"

// Validation errors.
var (
	ErrEmptyFolderPath = errors.New("folder path cannot be empty")
)

// Folder is a configured audio folder: the scope a soundboard widget draws its catalog from.
// Duplicate paths across folders are legal; each folder gets an independent widget.
type Folder struct {
	Name string `toml:"name" json:"name" yaml:"name"`
	Path string `toml:"path" json:"path" yaml:"path"` // Vault-relative root scope
	Loop bool   `toml:"loop" json:"loop" yaml:"loop"` // Default repeat policy for the widget
	Icon string `toml:"icon,omitempty" json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Validate checks that the folder has all required fields.
func (f Folder) Validate() error {
	if strings.TrimSpace(f.Path) == "" {
		return ErrEmptyFolderPath
	}
	return nil
}

// DisplayName returns the folder name, or its path when no name is set.
func (f Folder) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Path
}

// IconName returns the folder icon, or DefaultIcon when none is set.
func (f Folder) IconName() string {
	if f.Icon != "" {
		return f.Icon
	}
	return DefaultIcon
}
