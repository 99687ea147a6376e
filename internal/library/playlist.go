package library

import "math/rand/v2"

// Playlist is a named, ordered and immutable sequence of tracks.
// Names are not guaranteed to be unique.
type Playlist struct {
	name   string
	tracks []*Track
}

// NewPlaylist creates a playlist. The track slice is copied.
func NewPlaylist(name string, tracks []*Track) *Playlist {
	return &Playlist{
		name:   name,
		tracks: append([]*Track(nil), tracks...),
	}
}

// Name returns the playlist name.
func (p *Playlist) Name() string {
	return p.name
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Track returns the track at index i. It panics if i is out of range.
func (p *Playlist) Track(i int) *Track {
	return p.tracks[i]
}

// Tracks returns a copy of the track list.
func (p *Playlist) Tracks() []*Track {
	return append([]*Track(nil), p.tracks...)
}

// InRange reports whether i is a valid track index.
func (p *Playlist) InRange(i int) bool {
	return i >= 0 && i < len(p.tracks)
}

// Shuffled returns a new playlist holding the same tracks in an order
// chosen by rng.
func (p *Playlist) Shuffled(name string, rng *rand.Rand) *Playlist {
	tracks := p.Tracks()
	rng.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
	return &Playlist{name: name, tracks: tracks}
}
