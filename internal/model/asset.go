// Package model defines the core data structures for the soundboard.
package model

import (
	"path"
	"strings"
	"time"
)

// Asset is a single audio file resolved from a folder scope.
// Assets are immutable once resolved and regenerated on every catalog request.
type Asset struct {
	Path      string    `json:"path" yaml:"path"`           // Vault-relative, unique within a catalog
	Basename  string    `json:"basename" yaml:"basename"`   // Display name (file name without extension)
	Extension string    `json:"extension" yaml:"extension"` // Without the leading dot, as found on disk
	Size      int64     `json:"size,omitempty" yaml:"size,omitempty"`
	ModTime   time.Time `json:"mod_time,omitzero" yaml:"mod_time,omitempty"`
}

// NewAsset builds an Asset from a vault-relative path.
func NewAsset(p string) Asset {
	base := path.Base(p)
	ext := path.Ext(base)
	return Asset{
		Path:      p,
		Basename:  strings.TrimSuffix(base, ext),
		Extension: strings.TrimPrefix(ext, "."),
	}
}

// Name returns the file name including its extension.
func (a Asset) Name() string {
	if a.Extension == "" {
		return a.Basename
	}
	return a.Basename + "." + a.Extension
}

// Catalog is an ordered list of assets produced by resolving a folder scope.
// A catalog is never mutated in place; resolving again produces a new one.
type Catalog []Asset

// Lookup finds an asset by its vault-relative path.
// Returns nil if not found.
func (c Catalog) Lookup(p string) *Asset {
	for i := range c {
		if c[i].Path == p {
			return &c[i]
		}
	}
	return nil
}

// LookupByIndex finds an asset by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func (c Catalog) LookupByIndex(index int) *Asset {
	idx := index - 1
	if idx < 0 || idx >= len(c) {
		return nil
	}
	return &c[idx]
}

// Paths returns the asset paths in catalog order.
func (c Catalog) Paths() []string {
	paths := make([]string, len(c))
	for i, a := range c {
		paths[i] = a.Path
	}
	return paths
}

// Names returns the display names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, a := range c {
		names[i] = a.Basename
	}
	return names
}

// Search returns the assets whose name or path contains term.
// Case-insensitive substring match.
func (c Catalog) Search(term string) Catalog {
	if term == "" {
		return c
	}

	term = strings.ToLower(term)
	var result Catalog
	for _, a := range c {
		if strings.Contains(strings.ToLower(a.Name()), term) ||
			strings.Contains(strings.ToLower(a.Path), term) {
			result = append(result, a)
		}
	}
	return result
}
