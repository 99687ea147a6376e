// Package core provides the plugins shipped with the player: static and
// folder-backed playlists and a console playback reporter.
package core

import (
	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/plugin"
)

// CatalogName is the name of the native load unit.
const CatalogName = "core"

// Class names.
const (
	ClassStaticPlaylists  = "StaticPlaylists"
	ClassFolderLibrary    = "FolderLibrary"
	ClassPlaybackReporter = "PlaybackReporter"
)

// Plugin ids.
const (
	IDStaticPlaylists  = "core.static-playlists"
	IDFolderLibrary    = "core.folder-library"
	IDPlaybackReporter = "core.playback-reporter"
)

// PlaylistSource is the supertype name declared by every contributor that
// produces playlists from outside the library.
const PlaylistSource = "PlaylistSource"

type options struct {
	playlists []*library.Playlist
}

// Option configures the catalog.
type Option func(*options)

// WithPlaylists seeds StaticPlaylists with playlists built in code. They
// are contributed before any configured through settings.
func WithPlaylists(playlists ...*library.Playlist) Option {
	return func(o *options) {
		o.playlists = append(o.playlists, playlists...)
	}
}

// Catalog returns a fresh catalog of the core plugins.
func Catalog(opts ...Option) *plugin.Catalog {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return plugin.NewCatalog(CatalogName).
		MustRegister(plugin.Descriptor{
			Class:      ClassStaticPlaylists,
			ID:         IDStaticPlaylists,
			Implements: []string{PlaylistSource},
		}, plugin.Construct(func(h plugin.Host) *StaticPlaylists {
			return NewStaticPlaylists(h, o.playlists...)
		})).
		MustRegister(plugin.Descriptor{
			Class:      ClassFolderLibrary,
			ID:         IDFolderLibrary,
			Implements: []string{PlaylistSource},
		}, plugin.Construct(NewFolderLibrary)).
		MustRegister(plugin.Descriptor{
			Class: ClassPlaybackReporter,
			ID:    IDPlaybackReporter,
		}, plugin.Construct(NewPlaybackReporter))
}
