package catalog

import (
	"context"
	"errors"
	"path"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"pgregory.net/rapid"
)

// fakeLister serves a fixed set of leaves under a single container.
type fakeLister struct {
	kinds     map[string]EntityKind
	leaves    []Leaf
	existsErr error
	listErr   error
	listCalls int
}

func (f *fakeLister) Exists(_ context.Context, p string) (EntityKind, error) {
	if f.existsErr != nil {
		return EntityNone, f.existsErr
	}
	return f.kinds[p], nil
}

func (f *fakeLister) ListLeaves(_ context.Context, _ string) ([]Leaf, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.leaves, nil
}

func leaf(p string) Leaf {
	ext := path.Ext(p)
	return Leaf{
		Path:      p,
		Basename:  strings.TrimSuffix(path.Base(p), ext),
		Extension: strings.TrimPrefix(ext, "."),
	}
}

func TestResolve_SFXFolder(t *testing.T) {
	lister := &fakeLister{
		kinds: map[string]EntityKind{"Audio/SFX": EntityContainer},
		leaves: []Leaf{
			leaf("Audio/SFX/zap.mp3"),
			leaf("Audio/SFX/Boom.wav"),
			leaf("Audio/SFX/alarm.ogg"),
			leaf("Audio/SFX/notes.txt"),
		},
	}

	catalog, err := Resolve(context.Background(), "Audio/SFX", lister)
	require.NoError(t, err)

	assert.Equal(t, []string{"alarm", "Boom", "zap"}, catalog.Names())
	assert.Equal(t, []string{"Audio/SFX/alarm.ogg", "Audio/SFX/Boom.wav", "Audio/SFX/zap.mp3"}, catalog.Paths())
}

func TestResolve_NotFound(t *testing.T) {
	tests := []struct {
		name string
		kind EntityKind
	}{
		{"absent", EntityNone},
		{"leaf", EntityLeaf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeLister{kinds: map[string]EntityKind{"Missing": tt.kind}}

			catalog, err := Resolve(context.Background(), "Missing", lister)
			require.Error(t, err)
			assert.Nil(t, catalog)
			assert.True(t, IsNotFound(err))

			var nf *NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, "Missing", nf.Path)
			assert.Equal(t, tt.kind, nf.Kind)
			assert.Contains(t, err.Error(), `"Missing" not found`)
			assert.Zero(t, lister.listCalls)
		})
	}
}

func TestResolve_EmptyFolder(t *testing.T) {
	lister := &fakeLister{
		kinds:  map[string]EntityKind{"Empty": EntityContainer},
		leaves: []Leaf{leaf("Empty/readme.md")},
	}

	catalog, err := Resolve(context.Background(), "Empty", lister)
	require.NoError(t, err)
	assert.NotNil(t, catalog)
	assert.Empty(t, catalog)
}

func TestResolve_ListerErrors(t *testing.T) {
	boom := errors.New("permission denied")

	t.Run("exists", func(t *testing.T) {
		_, err := Resolve(context.Background(), "A", &fakeLister{existsErr: boom})
		require.ErrorIs(t, err, boom)
		assert.False(t, IsNotFound(err))
	})

	t.Run("list", func(t *testing.T) {
		lister := &fakeLister{
			kinds:   map[string]EntityKind{"A": EntityContainer},
			listErr: boom,
		}
		_, err := Resolve(context.Background(), "A", lister)
		require.ErrorIs(t, err, boom)
	})
}

func TestResolve_CaseInsensitiveExtensions(t *testing.T) {
	lister := &fakeLister{
		kinds: map[string]EntityKind{"A": EntityContainer},
		leaves: []Leaf{
			leaf("A/one.MP3"),
			leaf("A/two.Flac"),
			leaf("A/three.AAC"),
			leaf("A/four.mid"),
		},
	}

	catalog, err := Resolve(context.Background(), "A", lister)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three", "two"}, catalog.Names())
}

func TestResolve_PathTiebreak(t *testing.T) {
	lister := &fakeLister{
		kinds: map[string]EntityKind{"A": EntityContainer},
		leaves: []Leaf{
			leaf("A/z/intro.wav"),
			leaf("A/intro.mp3"),
			leaf("A/b/intro.ogg"),
		},
	}

	catalog, err := Resolve(context.Background(), "A", lister)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/b/intro.ogg", "A/intro.mp3", "A/z/intro.wav"}, catalog.Paths())
}

func TestResolve_NormalizesRoot(t *testing.T) {
	lister := &fakeLister{
		kinds:  map[string]EntityKind{"Audio/SFX": EntityContainer},
		leaves: []Leaf{leaf("Audio/SFX/a.wav")},
	}

	catalog, err := Resolve(context.Background(), "/Audio/SFX/", lister)
	require.NoError(t, err)
	assert.Len(t, catalog, 1)
}

func TestIsAudioExtension(t *testing.T) {
	for _, ext := range []string{"mp3", "wav", "ogg", "webm", "m4a", "flac", "aac", ".MP3", "Wav"} {
		assert.True(t, IsAudioExtension(ext), ext)
	}
	for _, ext := range []string{"", "txt", "mid", "mp4", "opus"} {
		assert.False(t, IsAudioExtension(ext), ext)
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"mp3":  "audio/mpeg",
		"wav":  "audio/wav",
		"ogg":  "audio/ogg",
		"webm": "audio/webm",
		"m4a":  "audio/mp4",
		"flac": "audio/flac",
		".AAC": "audio/aac",
		"xyz":  "audio/*",
	}
	for ext, want := range tests {
		assert.Equal(t, want, MimeType(ext), ext)
	}
}

func TestExtensions_ReturnsCopy(t *testing.T) {
	exts := Extensions()
	exts[0] = "mid"
	assert.True(t, IsAudioExtension("mp3"))
	assert.False(t, IsAudioExtension("mid"))
}

func TestResolve_VaultListerOnMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/Audio/SFX/.trash", 0o755))
	require.NoError(t, fs.MkdirAll("/Audio/SFX/Deep", 0o755))
	for _, p := range []string{
		"/Audio/SFX/zap.mp3",
		"/Audio/SFX/Boom.wav",
		"/Audio/SFX/Deep/alarm.ogg",
		"/Audio/SFX/notes.txt",
		"/Audio/SFX/.hidden.mp3",
		"/Audio/SFX/.trash/old.mp3",
		"/Audio/readme.md",
	} {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}

	lister := NewFsLister(fs)

	catalog, err := Resolve(context.Background(), "Audio/SFX", lister)
	require.NoError(t, err)
	assert.Equal(t, []string{"Audio/SFX/Deep/alarm.ogg", "Audio/SFX/Boom.wav", "Audio/SFX/zap.mp3"}, catalog.Paths())
	assert.Equal(t, int64(1), catalog[0].Size)

	_, err = Resolve(context.Background(), "Audio/readme.md", lister)
	assert.True(t, IsNotFound(err))

	_, err = Resolve(context.Background(), "Nope", lister)
	assert.True(t, IsNotFound(err))
}

func TestResolve_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/A/a.mp3", []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, "A", NewFsLister(fs))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"/":            "",
		"Audio/SFX":    "Audio/SFX",
		"/Audio/SFX/":  "Audio/SFX",
		" Audio//SFX ": "Audio/SFX",
		"Audio/../SFX": "SFX",
		"../outside":   "outside",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanPath(in), in)
	}
}

func TestVaultLister_ResourcePath(t *testing.T) {
	l := NewVaultLister("/home/me/Notes")
	assert.Equal(t, "/home/me/Notes/Audio/zap.mp3", l.ResourcePath("Audio/zap.mp3"))
	assert.Equal(t, "/home/me/Notes", l.Root())

	mem := NewFsLister(afero.NewMemMapFs())
	assert.Equal(t, "Audio/zap.mp3", mem.ResourcePath("Audio/zap.mp3"))
}

func TestEntityKind_String(t *testing.T) {
	assert.Equal(t, "none", EntityNone.String())
	assert.Equal(t, "leaf", EntityLeaf.String())
	assert.Equal(t, "container", EntityContainer.String())
}

var leafGen = rapid.Custom(func(t *rapid.T) Leaf {
	dir := rapid.SampledFrom([]string{"R", "R/a", "R/B", "R/a/c"}).Draw(t, "dir")
	base := rapid.StringMatching(`[A-Za-z0-9 _-]{1,8}`).Draw(t, "base")
	ext := rapid.SampledFrom([]string{"mp3", "WAV", "ogg", "txt", "md", "flac", "Mp4", "aac"}).Draw(t, "ext")
	return leaf(dir + "/" + base + "." + ext)
})

func TestResolve_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		leaves := rapid.SliceOf(leafGen).Draw(t, "leaves")
		lister := &fakeLister{
			kinds:  map[string]EntityKind{"R": EntityContainer},
			leaves: leaves,
		}

		first, err := Resolve(context.Background(), "R", lister)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		want := 0
		for _, l := range leaves {
			if IsAudioExtension(l.Extension) {
				want++
			}
		}
		if len(first) != want {
			t.Fatalf("got %d assets, want %d", len(first), want)
		}

		col := collate.New(language.Und)
		for i, a := range first {
			if !IsAudioExtension(a.Extension) {
				t.Fatalf("non-audio asset %q", a.Path)
			}
			if i == 0 {
				continue
			}
			prev := first[i-1]
			c := col.CompareString(prev.Basename, a.Basename)
			if c > 0 || (c == 0 && prev.Path > a.Path) {
				t.Fatalf("out of order: %q before %q", prev.Path, a.Path)
			}
		}

		second, err := Resolve(context.Background(), "R", lister)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if len(second) != len(first) {
			t.Fatalf("not idempotent")
		}
		for i := range first {
			if first[i].Path != second[i].Path {
				t.Fatalf("not idempotent at %d: %q vs %q", i, first[i].Path, second[i].Path)
			}
		}
	})
}
