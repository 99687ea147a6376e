package core

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugins/settings"
)

// StaticPlaylists contributes a fixed set of playlists.
//
// Settings:
//
//	playlists = { "<name>" = ["<path>", ...] }
type StaticPlaylists struct {
	plugin.Base

	seeded    []*library.Playlist
	playlists []*library.Playlist
}

// NewStaticPlaylists creates the plugin with playlists built in code.
func NewStaticPlaylists(_ plugin.Host, playlists ...*library.Playlist) *StaticPlaylists {
	return &StaticPlaylists{seeded: playlists}
}

// Restore builds the playlist set from the seeded playlists and settings.
// The plugin keeps no persisted state.
func (p *StaticPlaylists) Restore(io.Reader) error {
	p.playlists = append([]*library.Playlist(nil), p.seeded...)

	configured := settings.Table(p.Host().Settings(p.ID()), "playlists")
	for _, name := range settings.Keys(configured) {
		var tracks []*library.Track
		for _, path := range settings.Strings(configured, name) {
			tracks = append(tracks, fileTrack(path, nil))
		}
		p.playlists = append(p.playlists, library.NewPlaylist(name, tracks))
	}
	return nil
}

// Persist writes nothing.
func (p *StaticPlaylists) Persist(io.Writer) error {
	return nil
}

// PreferredOrder implements plugin.LibraryContributor.
func (p *StaticPlaylists) PreferredOrder() int {
	return 0
}

// Contribute appends the static playlists.
func (p *StaticPlaylists) Contribute(lib *library.Library) (*library.Library, error) {
	lib.Add(p.playlists...)
	return lib, nil
}

// Playlists returns the playlists the plugin contributes.
func (p *StaticPlaylists) Playlists() []*library.Playlist {
	return append([]*library.Playlist(nil), p.playlists...)
}

// fileTrack creates a track for path. The name falls back to the file name
// without extension.
func fileTrack(path string, meta map[string]string) *library.Track {
	if meta == nil {
		meta = make(map[string]string)
	}
	meta[library.KeyPath] = path
	if meta[library.KeyName] == "" {
		meta[library.KeyName] = meta[library.KeyTitle]
	}
	if meta[library.KeyName] == "" {
		base := filepath.Base(path)
		meta[library.KeyName] = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return library.NewTrack(meta, library.FileSource(path))
}
