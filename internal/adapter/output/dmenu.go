package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/localsoundboard/internal/catalog"
	"github.com/jmylchreest/localsoundboard/internal/model"
)

// DmenuFormatter formats catalogs for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes the catalog in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, c model.Catalog) error {
	for i := range c {
		line := f.formatLine(i+1, &c[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single asset line.
func (f *DmenuFormatter) formatLine(index int, a *model.Asset) string {
	// Use custom template if available
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(index, a)); err == nil {
			return buf.String()
		}
	}

	// Default format: index | name | size | path
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, strconv.Itoa(index))
	}

	parts = append(parts, truncate(a.Basename, f.opts.NameWidth))

	if f.opts.ShowSize && a.Size > 0 {
		parts = append(parts, humanBytes(a.Size))
	}
	if f.opts.ShowMime {
		parts = append(parts, catalog.MimeType(a.Extension))
	}

	parts = append(parts, a.Path)

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index    int
	Asset    *model.Asset
	Size     string
	Modified string
	Mime     string
}

func newTemplateData(index int, a *model.Asset) templateData {
	data := templateData{
		Index: index,
		Asset: a,
		Mime:  catalog.MimeType(a.Extension),
	}
	if a.Size > 0 {
		data.Size = humanBytes(a.Size)
	}
	if !a.ModTime.IsZero() {
		data.Modified = humanize.Time(a.ModTime)
	}
	return data
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"bytes":    humanBytes,
		"reltime":  humanize.Time,
		"mime":     catalog.MimeType,
		"upper":    strings.ToUpper,
	}
}

func humanBytes(n int64) string {
	return humanize.Bytes(uint64(max(n, 0)))
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
