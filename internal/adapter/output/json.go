package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/model"
)

// Entry is the structured export of one asset.
type Entry struct {
	model.Asset `yaml:",inline"`

	Index int    `json:"index" yaml:"index"`
	Mime  string `json:"mime" yaml:"mime"`
}

func entries(c model.Catalog) []Entry {
	out := make([]Entry, len(c))
	for i, a := range c {
		out[i] = Entry{Index: i + 1, Asset: a, Mime: catalog.MimeType(a.Extension)}
	}
	return out
}

// JSONFormatter formats catalogs as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the catalog as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, c model.Catalog) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries(c))
}

// YAMLFormatter formats catalogs as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes the catalog as a YAML sequence.
func (f *YAMLFormatter) Format(w io.Writer, c model.Catalog) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries(c)); err != nil {
		return err
	}
	return encoder.Close()
}
