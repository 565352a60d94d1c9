package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

func testCatalog() model.Catalog {
	return model.Catalog{
		{
			Path:      "Audio/SFX/alarm.ogg",
			Basename:  "alarm",
			Extension: "ogg",
			Size:      2048,
			ModTime:   time.Now().Add(-2 * time.Hour),
		},
		{
			Path:      "Audio/SFX/Boom.wav",
			Basename:  "Boom",
			Extension: "wav",
			Size:      1_500_000,
		},
	}
}

func TestDmenuFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	formatter := NewDmenuFormatter(DefaultFormatterOptions())
	require.NoError(t, formatter.Format(&buf, testCatalog()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "1 | alarm | 2.0 kB | Audio/SFX/alarm.ogg", lines[0])
	assert.Equal(t, "2 | Boom | 1.5 MB | Audio/SFX/Boom.wav", lines[1])
}

func TestDmenuFormatter_Options(t *testing.T) {
	var buf bytes.Buffer

	opts := FormatterOptions{Separator: "\t", ShowMime: true}
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testCatalog()[:1]))

	assert.Equal(t, "alarm\taudio/ogg\tAudio/SFX/alarm.ogg\n", buf.String())
}

func TestDmenuFormatter_Template(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}}: {{.Asset.Basename | upper}} [{{.Mime}}] {{.Size}}"
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testCatalog()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "1: ALARM [audio/ogg] 2.0 kB", lines[0])
	assert.Equal(t, "2: BOOM [audio/wav] 1.5 MB", lines[1])
}

func TestDmenuFormatter_InvalidTemplateFallsBack(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Template = "{{.Broken"
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testCatalog()[:1]))

	assert.Contains(t, buf.String(), "Audio/SFX/alarm.ogg")
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.ShowMime = true
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testCatalog()))

	assert.Equal(t,
		"[1] alarm.ogg (2.0 kB, audio/ogg)\n    Audio/SFX/alarm.ogg\n"+
			"[2] Boom.wav (1.5 MB, audio/wav)\n    Audio/SFX/Boom.wav\n",
		buf.String())
}

func TestPlainFormatter_Template(t *testing.T) {
	var buf bytes.Buffer

	opts := FormatterOptions{Template: "{{.Asset.Name}} {{.Modified}}\n"}
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testCatalog()[:1]))

	assert.Equal(t, "alarm.ogg 2 hours ago\n", buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, testCatalog()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "Audio/SFX/alarm.ogg", got[0]["path"])
	assert.Equal(t, "audio/ogg", got[0]["mime"])
	assert.EqualValues(t, 1, got[0]["index"])
	assert.NotContains(t, got[1], "mod_time")
}

func TestJSONFormatter_EmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, model.Catalog{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(DefaultFormatterOptions()).Format(&buf, testCatalog()))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "Audio/SFX/Boom.wav", got[1]["path"])
	assert.Equal(t, "Boom", got[1]["basename"])
	assert.Equal(t, "audio/wav", got[1]["mime"])
	assert.Equal(t, 2, got[1]["index"])
}

func TestPathsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPathsFormatter().Format(&buf, testCatalog()))
	assert.Equal(t, "Audio/SFX/alarm.ogg\nAudio/SFX/Boom.wav\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()

	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, opts))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, opts))
	assert.IsType(t, &DmenuFormatter{}, NewFormatter(FormatDmenu, opts))
	assert.IsType(t, &PathsFormatter{}, NewFormatter(FormatPaths, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("unknown", opts))
	assert.Len(t, FormatTypes(), 5)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 0))
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "he...", truncate("hello world", 5))
	assert.Equal(t, "hel", truncate("hello", 3))
	assert.Equal(t, "日本...", truncate("日本語の音楽です", 5))
}
