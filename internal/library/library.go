package library

// Library is the aggregate, ordered collection of playlists assembled by
// contributor plugins. It is mutable while the contribution pipeline runs
// and owned by the host afterwards.
type Library struct {
	playlists []*Playlist
}

// New creates a library holding the given playlists.
func New(playlists ...*Playlist) *Library {
	return &Library{playlists: append([]*Playlist(nil), playlists...)}
}

// Add appends playlists to the library.
func (l *Library) Add(playlists ...*Playlist) {
	l.playlists = append(l.playlists, playlists...)
}

// Playlists returns a copy of the playlist list.
func (l *Library) Playlists() []*Playlist {
	return append([]*Playlist(nil), l.playlists...)
}

// Playlist returns the playlist at index i.
func (l *Library) Playlist(i int) *Playlist {
	return l.playlists[i]
}

// Len returns the number of playlists.
func (l *Library) Len() int {
	return len(l.playlists)
}

// Find returns the first playlist with the given name.
func (l *Library) Find(name string) (*Playlist, bool) {
	for _, p := range l.playlists {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// Names returns playlist names in library order.
func (l *Library) Names() []string {
	names := make([]string, len(l.playlists))
	for i, p := range l.playlists {
		names[i] = p.name
	}
	return names
}
