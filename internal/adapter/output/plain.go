package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/model"
)

// PlainFormatter formats catalogs as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes one asset per line, with the path indented below.
func (f *PlainFormatter) Format(w io.Writer, c model.Catalog) error {
	for i := range c {
		if err := f.formatAsset(w, i+1, &c[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatAsset(w io.Writer, index int, a *model.Asset) error {
	if f.template != nil {
		return f.template.Execute(w, newTemplateData(index, a))
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	sb.WriteString(truncate(a.Name(), f.opts.NameWidth))

	var details []string
	if f.opts.ShowSize && a.Size > 0 {
		details = append(details, humanBytes(a.Size))
	}
	if f.opts.ShowMime {
		details = append(details, catalog.MimeType(a.Extension))
	}
	if len(details) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(details, ", "))
	}

	sb.WriteString("\n    " + a.Path + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// PathsFormatter outputs just the vault-relative paths, one per line.
// Useful for piping to other commands (e.g., soundboard play).
type PathsFormatter struct{}

// NewPathsFormatter creates a new paths formatter.
func NewPathsFormatter() *PathsFormatter {
	return &PathsFormatter{}
}

// Format writes asset paths to the writer, one per line.
func (f *PathsFormatter) Format(w io.Writer, c model.Catalog) error {
	for _, a := range c {
		if _, err := fmt.Fprintln(w, a.Path); err != nil {
			return err
		}
	}
	return nil
}
