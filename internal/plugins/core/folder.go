package core

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugins/settings"
)

// DefaultExtensions are the audio file extensions FolderLibrary picks up.
var DefaultExtensions = []string{".mp3", ".flac", ".m4a", ".ogg", ".wav"}

// FolderLibrary contributes one playlist per directory of audio files below
// a root directory. Track metadata is read from the file tags.
//
// Settings:
//
//	dir        = "<root>"
//	extensions = [".mp3", ...]
type FolderLibrary struct {
	plugin.Base

	dir        string
	extensions []string
}

// NewFolderLibrary creates the plugin.
func NewFolderLibrary(plugin.Host) *FolderLibrary {
	return &FolderLibrary{}
}

// Restore reads the settings. The plugin keeps no persisted state.
func (p *FolderLibrary) Restore(io.Reader) error {
	s := p.Host().Settings(p.ID())
	p.dir = settings.String(s, "dir", "")

	p.extensions = DefaultExtensions
	if exts := settings.Strings(s, "extensions"); len(exts) > 0 {
		p.extensions = make([]string, len(exts))
		for i, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			p.extensions[i] = strings.ToLower(ext)
		}
	}
	return nil
}

// Persist writes nothing.
func (p *FolderLibrary) Persist(io.Writer) error {
	return nil
}

// PreferredOrder implements plugin.LibraryContributor.
func (p *FolderLibrary) PreferredOrder() int {
	return 0
}

// Contribute scans the configured directory. Without a directory it
// contributes nothing.
func (p *FolderLibrary) Contribute(lib *library.Library) (*library.Library, error) {
	if p.dir == "" {
		return lib, nil
	}

	playlists, err := ScanFolder(p.dir, p.extensions)
	if err != nil {
		return nil, err
	}
	p.Host().Logger().Debug("folder scanned", "dir", p.dir, "playlists", len(playlists))

	lib.Add(playlists...)
	return lib, nil
}

// ScanFolder walks root and returns one playlist per directory holding at
// least one file with a matching extension. Playlists are named by their
// path relative to root, the root itself by its base name. Both playlists
// and tracks are in lexical order.
func ScanFolder(root string, extensions []string) ([]*library.Playlist, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	groups := make(map[string][]*library.Track)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		dir := filepath.Dir(path)
		groups[dir] = append(groups[dir], readTrack(path))
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	playlists := make([]*library.Playlist, 0, len(dirs))
	for _, dir := range dirs {
		name, err := filepath.Rel(root, dir)
		if err != nil || name == "." {
			name = filepath.Base(root)
		}
		playlists = append(playlists, library.NewPlaylist(filepath.ToSlash(name), groups[dir]))
	}
	return playlists, nil
}

// readTrack builds a track from the tags of the file at path. Unreadable
// tags leave only the file-name fallback.
func readTrack(path string) *library.Track {
	meta := make(map[string]string)

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if m, err := tag.ReadFrom(f); err == nil {
			set := func(key, value string) {
				if value != "" {
					meta[key] = value
				}
			}
			set(library.KeyTitle, m.Title())
			set(library.KeyArtist, m.Artist())
			set(library.KeyAlbum, m.Album())
			set(library.KeyGenre, m.Genre())
			if y := m.Year(); y > 0 {
				meta[library.KeyYear] = strconv.Itoa(y)
			}
		}
	}

	return fileTrack(path, meta)
}
