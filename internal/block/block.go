// Package block parses and renders local-soundboard content blocks embedded in notes.
//
// A block is a fenced code block tagged local-soundboard whose lines are
// "key: value" pairs:
//
//	```local-soundboard
//	folder: Audio/SFX
//	title: Sound effects
//	icon: zap
//	loop: true
//	```
package block

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

// Language is the fence info string that marks a soundboard block.
const Language = "local-soundboard"

// MissingFolderHelp is shown in place of a widget when a block has no folder.
const MissingFolderHelp = `Please specify a "folder" attribute with the folder path.`

// ErrMissingFolder is returned for blocks without a folder attribute.
var ErrMissingFolder = errors.New(`missing "folder" attribute`)

var attributeLine = regexp.MustCompile(`^(\w+):\s*(.+)$`)

// Block is a parsed block configuration.
type Block struct {
	Folder string
	Title  string
	Icon   string
	Loop   bool
	Line   int // 1-based line of the opening fence, 0 when not extracted from a note
}

// ParseAttributes reads "key: value" lines. Lines that do not match are ignored;
// later keys override earlier ones.
func ParseAttributes(source string) map[string]string {
	attrs := make(map[string]string)
	for line := range strings.Lines(source) {
		m := attributeLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		attrs[m[1]] = strings.TrimSpace(m[2])
	}
	return attrs
}

// Parse builds a Block from the block body. Unknown keys are ignored.
// loop is enabled only by the exact value "true".
func Parse(source string) (Block, error) {
	attrs := ParseAttributes(source)

	b := Block{
		Folder: attrs["folder"],
		Title:  attrs["title"],
		Icon:   attrs["icon"],
		Loop:   attrs["loop"] == "true",
	}
	if b.Folder == "" {
		return b, ErrMissingFolder
	}
	return b, nil
}

// DisplayTitle returns the block title, defaulting to "Soundboard: <folder>".
func (b Block) DisplayTitle() string {
	if b.Title != "" {
		return b.Title
	}
	return "Soundboard: " + b.Folder
}

// ToFolder converts the block into a folder scope.
func (b Block) ToFolder() model.Folder {
	return model.Folder{
		Name: b.DisplayTitle(),
		Path: b.Folder,
		Loop: b.Loop,
		Icon: b.Icon,
	}
}

// Format renders a block for insertion into a note. When audioPath is set the
// title is derived from the file name without its extension.
func Format(folder, audioPath string) string {
	var sb strings.Builder
	sb.WriteString("```" + Language + "\n")
	fmt.Fprintf(&sb, "folder: %s\n", folder)
	if audioPath != "" {
		base := path.Base(audioPath)
		fmt.Fprintf(&sb, "title: %s\n", strings.TrimSuffix(base, path.Ext(base)))
	}
	sb.WriteString("```\n")
	return sb.String()
}
