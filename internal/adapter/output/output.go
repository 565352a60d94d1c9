// Package output provides output formatters for audio catalogs.
package output

import (
	"io"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

// Formatter formats catalogs for output.
type Formatter interface {
	// Format writes the formatted catalog to the writer.
	Format(w io.Writer, catalog model.Catalog) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPlain FormatType = "plain"
	FormatPaths FormatType = "paths"
)

// FormatTypes returns every supported format.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatDmenu, FormatJSON, FormatYAML, FormatPaths}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatPaths:
		return NewPathsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom template for dmenu/plain format
	ShowIndex bool   // Show 1-based index prefix
	ShowSize  bool   // Show human-readable file size
	ShowMime  bool   // Show MIME type
	Separator string // Field separator for dmenu format
	NameWidth int    // Truncate names longer than this (0 = unlimited)
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: true,
		ShowSize:  true,
		ShowMime:  false,
		Separator: " | ",
		NameWidth: 60,
	}
}
