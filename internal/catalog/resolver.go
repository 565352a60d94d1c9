// Package catalog resolves folder scopes of a notes vault into ordered audio catalogs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jmylchreest/localsoundboard/internal/model"
)

// audioExtensions is the fixed allowlist of playable extensions.
var audioExtensions = []string{"mp3", "wav", "ogg", "webm", "m4a", "flac", "aac"}

// mimeTypes maps audio extensions to MIME types.
var mimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"webm": "audio/webm",
	"m4a":  "audio/mp4",
	"flac": "audio/flac",
	"aac":  "audio/aac",
}

// Extensions returns the audio extension allowlist.
func Extensions() []string {
	return slices.Clone(audioExtensions)
}

// IsAudioExtension reports whether ext (with or without a leading dot) is in the allowlist.
// The comparison is case-insensitive.
func IsAudioExtension(ext string) bool {
	return slices.Contains(audioExtensions, strings.ToLower(strings.TrimPrefix(ext, ".")))
}

// MimeType returns the MIME type for an audio extension, or "audio/*" if unknown.
func MimeType(ext string) string {
	if t, ok := mimeTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return t
	}
	return "audio/*"
}

// NotFoundError is returned when a folder scope does not resolve to a folder.
type NotFoundError struct {
	Path string
	Kind EntityKind // EntityNone or EntityLeaf
}

func (e *NotFoundError) Error() string {
	if e.Kind == EntityLeaf {
		return fmt.Sprintf("folder %q not found: path is a file", e.Path)
	}
	return fmt.Sprintf("folder %q not found", e.Path)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Resolve lists the audio assets under rootPath, sorted by display name with the
// full path as tiebreak. An existing folder with no audio yields an empty catalog.
func Resolve(ctx context.Context, rootPath string, lister Lister) (model.Catalog, error) {
	root := CleanPath(rootPath)

	kind, err := lister.Exists(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat folder %q: %w", root, err)
	}
	if kind != EntityContainer {
		return nil, &NotFoundError{Path: root, Kind: kind}
	}

	leaves, err := lister.ListLeaves(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %q: %w", root, err)
	}

	assets := make(model.Catalog, 0, len(leaves))
	for _, leaf := range leaves {
		if !IsAudioExtension(leaf.Extension) {
			continue
		}
		assets = append(assets, model.Asset{
			Path:      leaf.Path,
			Basename:  leaf.Basename,
			Extension: leaf.Extension,
			Size:      leaf.Size,
			ModTime:   leaf.ModTime,
		})
	}

	Sort(assets)
	return assets, nil
}

// Sort orders assets in place by display name using locale collation,
// then by full path.
func Sort(assets model.Catalog) {
	if len(assets) < 2 {
		return
	}

	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(language.Und)
	sort.SliceStable(assets, func(i, j int) bool {
		if c := col.CompareString(assets[i].Basename, assets[j].Basename); c != 0 {
			return c < 0
		}
		return assets[i].Path < assets[j].Path
	})
}
