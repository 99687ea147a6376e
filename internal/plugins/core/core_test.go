package core

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
)

type testHost struct {
	settings map[string]map[string]any
	state    playback.State
}

func (h *testHost) Library() (*library.Library, error)      { return nil, plugin.ErrHostNotReady }
func (h *testHost) PlaybackState() playback.State           { return h.state }
func (h *testHost) SetPlaybackState(s playback.State) error { h.state = s; return nil }
func (h *testHost) Settings(id string) map[string]any       { return h.settings[id] }
func (h *testHost) Logger() *slog.Logger                    { return slog.New(slog.DiscardHandler) }

// load builds every core plugin against host and restores it.
func load(t *testing.T, host plugin.Host, opts ...Option) *plugin.Registry {
	t.Helper()

	reg, err := plugin.NewLoader([]plugin.LoadUnit{
		{Unit: Catalog(opts...), DiscoverAll: true},
	}).Load(host)
	require.NoError(t, err)

	for _, p := range reg.All() {
		require.NoError(t, p.Restore(nil))
	}
	return reg
}

func track(name string) *library.Track {
	return library.NewTrack(map[string]string{library.KeyName: name}, nil)
}

func TestCatalog(t *testing.T) {
	c := Catalog()

	assert.Equal(t, CatalogName, c.Name())
	assert.Equal(t, []string{ClassFolderLibrary, ClassPlaybackReporter, ClassStaticPlaylists}, c.Classes())

	for _, class := range c.Classes() {
		desc, f, err := c.Resolve(class)
		require.NoError(t, err)
		assert.Equal(t, plugin.ShapeHost, f.Shape(), class)
		assert.True(t, strings.HasPrefix(desc.ID, "core."), desc.ID)
	}
}

func TestCatalog_FreshPerCall(t *testing.T) {
	a := load(t, &testHost{}, WithPlaylists(library.NewPlaylist("a", nil)))
	b := load(t, &testHost{})

	pa, _ := a.Get(IDStaticPlaylists)
	pb, _ := b.Get(IDStaticPlaylists)
	assert.Len(t, pa.(*StaticPlaylists).Playlists(), 1)
	assert.Empty(t, pb.(*StaticPlaylists).Playlists())
}

func TestFindSingle_PlaylistSource(t *testing.T) {
	reg := load(t, &testHost{})

	_, ok := reg.FindSingle(PlaylistSource)
	assert.False(t, ok, "two plugins declare PlaylistSource")

	p, ok := reg.FindSingle(ClassStaticPlaylists)
	require.True(t, ok)
	assert.Equal(t, IDStaticPlaylists, p.ID())
}

func TestStaticPlaylists(t *testing.T) {
	host := &testHost{settings: map[string]map[string]any{
		IDStaticPlaylists: {
			"playlists": map[string]any{
				"zeta":  []any{"/music/z1.mp3"},
				"alpha": []any{"/music/a1.mp3", "/music/a2.flac"},
			},
		},
	}}
	seeded := library.NewPlaylist("seeded", []*library.Track{track("s")})

	reg := load(t, host, WithPlaylists(seeded))
	p, ok := reg.Get(IDStaticPlaylists)
	require.True(t, ok)

	lib, err := p.(plugin.LibraryContributor).Contribute(library.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"seeded", "alpha", "zeta"}, lib.Names())
	assert.Same(t, seeded, lib.Playlist(0))

	alpha := lib.Playlist(1)
	require.Equal(t, 2, alpha.Len())
	assert.Equal(t, "a1", alpha.Track(0).Value(library.KeyName))
	assert.Equal(t, "/music/a2.flac", alpha.Track(1).Value(library.KeyPath))
}

func TestStaticPlaylists_PersistsNothing(t *testing.T) {
	p := NewStaticPlaylists(nil)
	var buf bytes.Buffer
	require.NoError(t, p.Persist(&buf))
	assert.Zero(t, buf.Len())
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))
}

func TestScanFolder(t *testing.T) {
	root := filepath.Join(t.TempDir(), "music")
	writeFile(t, filepath.Join(root, "intro.mp3"))
	writeFile(t, filepath.Join(root, "rock", "b.flac"))
	writeFile(t, filepath.Join(root, "rock", "a.MP3"))
	writeFile(t, filepath.Join(root, "rock", "cover.jpg"))
	writeFile(t, filepath.Join(root, "empty", "notes.txt"))

	playlists, err := ScanFolder(root, DefaultExtensions)
	require.NoError(t, err)
	require.Len(t, playlists, 2)

	assert.Equal(t, "music", playlists[0].Name())
	assert.Equal(t, 1, playlists[0].Len())

	rock := playlists[1]
	assert.Equal(t, "rock", rock.Name())
	require.Equal(t, 2, rock.Len())
	assert.Equal(t, "a", rock.Track(0).Value(library.KeyName))
	assert.Equal(t, "b", rock.Track(1).Value(library.KeyName))

	rc, err := rock.Track(0).Open()
	require.NoError(t, err)
	rc.Close()
}

func TestScanFolder_Missing(t *testing.T) {
	_, err := ScanFolder(filepath.Join(t.TempDir(), "nope"), DefaultExtensions)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFolderLibrary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "live", "one.ogg"))
	writeFile(t, filepath.Join(root, "live", "two.wav"))

	host := &testHost{settings: map[string]map[string]any{
		IDFolderLibrary: {"dir": root, "extensions": []any{"ogg"}},
	}}
	reg := load(t, host)
	p, _ := reg.Get(IDFolderLibrary)

	lib, err := p.(plugin.LibraryContributor).Contribute(library.New())
	require.NoError(t, err)
	require.Equal(t, []string{"live"}, lib.Names())
	assert.Equal(t, 1, lib.Playlist(0).Len())
}

func TestFolderLibrary_NoDir(t *testing.T) {
	reg := load(t, &testHost{})
	p, _ := reg.Get(IDFolderLibrary)

	lib, err := p.(plugin.LibraryContributor).Contribute(library.New())
	require.NoError(t, err)
	assert.Zero(t, lib.Len())
}

func TestPlaybackReporter(t *testing.T) {
	reg := load(t, &testHost{})
	p, _ := reg.Get(IDPlaybackReporter)
	r := p.(*PlaybackReporter)

	pl := library.NewPlaylist("my", []*library.Track{track("a"), track("b")})
	steps := []playback.State{
		playback.Playing(pl, 0),
		playback.Paused(pl, 0),
		playback.Resumed(pl, 0),
		playback.Playing(pl, 1),
		playback.Stopped(),
	}

	old := playback.Stopped()
	for _, s := range steps {
		require.NoError(t, r.OnPlaybackStateChange(old, s))
		old = s
	}
	assert.Equal(t, 2, r.Started())

	var buf bytes.Buffer
	require.NoError(t, r.Persist(&buf))
	assert.Equal(t, "2", buf.String())

	again := NewPlaybackReporter(nil)
	require.NoError(t, again.Restore(&buf))
	assert.Equal(t, 2, again.Started())

	assert.Error(t, again.Restore(strings.NewReader("two")))
}
