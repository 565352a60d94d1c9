package catalog

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// EntityKind describes what a vault path resolves to.
type EntityKind int

const (
	// EntityNone means nothing exists at the path.
	EntityNone EntityKind = iota
	// EntityLeaf is a file.
	EntityLeaf
	// EntityContainer is a folder.
	EntityContainer
)

// String returns the string representation of the entity kind.
func (k EntityKind) String() string {
	switch k {
	case EntityLeaf:
		return "leaf"
	case EntityContainer:
		return "container"
	default:
		return "none"
	}
}

// Leaf is a file entry reported by a Lister.
type Leaf struct {
	Path      string // Vault-relative, forward slashes
	Basename  string // File name without extension
	Extension string // Without the leading dot
	Size      int64
	ModTime   time.Time
}

// Lister is the host filesystem capability the resolver depends on.
// Implementations perform the recursive descent; the resolver only filters and sorts.
type Lister interface {
	// Exists reports what the path resolves to.
	Exists(ctx context.Context, p string) (EntityKind, error)

	// ListLeaves returns every file reachable under the path, flattened.
	ListLeaves(ctx context.Context, p string) ([]Leaf, error)
}

// VaultLister lists files of a notes vault through an afero filesystem.
// Hidden entries (dot-prefixed files and folders such as .obsidian or .trash) are skipped.
type VaultLister struct {
	fs   afero.Fs
	root string // OS path of the vault, empty for non-OS filesystems
}

// NewVaultLister creates a lister for the vault rooted at the given OS directory.
func NewVaultLister(root string) *VaultLister {
	return &VaultLister{
		fs:   afero.NewBasePathFs(afero.NewOsFs(), root),
		root: root,
	}
}

// NewFsLister creates a lister over an arbitrary afero filesystem whose root is the vault root.
func NewFsLister(fs afero.Fs) *VaultLister {
	return &VaultLister{fs: fs}
}

// Root returns the OS path of the vault, or "" when the lister is not OS-backed.
func (l *VaultLister) Root() string {
	return l.root
}

// ResourcePath maps a vault-relative path to the path handed to an output device.
func (l *VaultLister) ResourcePath(p string) string {
	if l.root == "" {
		return p
	}
	return filepath.Join(l.root, filepath.FromSlash(CleanPath(p)))
}

// Exists reports what the vault path resolves to.
func (l *VaultLister) Exists(ctx context.Context, p string) (EntityKind, error) {
	if err := ctx.Err(); err != nil {
		return EntityNone, err
	}

	info, err := l.fs.Stat(fsPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return EntityNone, nil
		}
		return EntityNone, err
	}
	if info.IsDir() {
		return EntityContainer, nil
	}
	return EntityLeaf, nil
}

// ListLeaves walks the folder and returns every non-hidden file below it.
func (l *VaultLister) ListLeaves(ctx context.Context, p string) ([]Leaf, error) {
	root := fsPath(p)
	var leaves []Leaf

	err := afero.Walk(l.fs, root, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkPath != root && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		rel := vaultPath(walkPath)
		ext := path.Ext(rel)
		leaves = append(leaves, Leaf{
			Path:      rel,
			Basename:  strings.TrimSuffix(path.Base(rel), ext),
			Extension: strings.TrimPrefix(ext, "."),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return leaves, nil
}

// CleanPath normalizes a user-supplied vault path: forward slashes, no leading or trailing slash.
// The vault root is "".
func CleanPath(p string) string {
	p = path.Clean("/" + filepath.ToSlash(strings.TrimSpace(p)))
	return strings.TrimPrefix(p, "/")
}

// fsPath converts a vault path to the absolute form used against the afero filesystem.
func fsPath(p string) string {
	return "/" + CleanPath(p)
}

// vaultPath converts an afero path back to a vault-relative path.
func vaultPath(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(p), "/")
}
