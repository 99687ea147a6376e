// Package library holds the passive music model: tracks, playlists and the
// aggregate library built by contributor plugins.
package library

import (
	"errors"
	"io"
	"os"
	"sort"
)

// Well-known metadata keys.
const (
	KeyArtist = "artist"
	KeyName   = "name"
	KeyAlbum  = "album"
	KeyTitle  = "title"
	KeyGenre  = "genre"
	KeyYear   = "year"
	KeyPath   = "path"
)

// ErrNoSource is returned when opening a track that has no byte source.
var ErrNoSource = errors.New("track has no source")

// Source lazily opens the bytes of a track.
type Source func() (io.ReadCloser, error)

// FileSource returns a Source that opens path on demand.
func FileSource(path string) Source {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// Track is an immutable metadata record plus a lazily opened byte source.
// Tracks are shared by pointer between playlists and never mutated.
type Track struct {
	meta   map[string]string
	source Source
}

// NewTrack creates a track. The metadata map is copied.
func NewTrack(meta map[string]string, source Source) *Track {
	m := make(map[string]string, len(meta))
	for k, v := range meta {
		m[k] = v
	}
	return &Track{meta: m, source: source}
}

// Get returns the metadata value for key.
func (t *Track) Get(key string) (string, bool) {
	v, ok := t.meta[key]
	return v, ok
}

// Value returns the metadata value for key or "" if absent.
func (t *Track) Value(key string) string {
	return t.meta[key]
}

// Metadata returns a copy of the track metadata.
func (t *Track) Metadata() map[string]string {
	m := make(map[string]string, len(t.meta))
	for k, v := range t.meta {
		m[k] = v
	}
	return m
}

// Keys returns the metadata keys in sorted order.
func (t *Track) Keys() []string {
	keys := make([]string, 0, len(t.meta))
	for k := range t.meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Open opens the track's byte source. The caller closes the reader.
func (t *Track) Open() (io.ReadCloser, error) {
	if t.source == nil {
		return nil, ErrNoSource
	}
	return t.source()
}

// String returns "artist - name" or whichever part is known.
func (t *Track) String() string {
	artist, name := t.meta[KeyArtist], t.meta[KeyName]
	if name == "" {
		name = t.meta[KeyTitle]
	}
	switch {
	case artist != "" && name != "":
		return artist + " - " + name
	case name != "":
		return name
	case artist != "":
		return artist
	default:
		return "<untitled>"
	}
}
