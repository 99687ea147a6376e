package extras

import (
	"io"
	"math/rand/v2"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugins/settings"
)

// shuffler is shared by the contributors that append shuffled copies of
// every playlist already in the library.
type shuffler struct {
	plugin.Base

	order int
	name  func(string) string
	rng   *rand.Rand
}

// Restore seeds the generator from the settings. No state is kept.
func (s *shuffler) Restore(io.Reader) error {
	s.rng = settings.Rand(s.Host().Settings(s.ID()))
	return nil
}

// Persist writes nothing.
func (s *shuffler) Persist(io.Writer) error {
	return nil
}

// PreferredOrder implements plugin.LibraryContributor.
func (s *shuffler) PreferredOrder() int {
	return s.order
}

// Contribute appends a shuffled copy of each playlist present on entry.
func (s *shuffler) Contribute(lib *library.Library) (*library.Library, error) {
	if s.rng == nil {
		s.rng = settings.Rand(nil)
	}
	for _, pl := range lib.Playlists() {
		lib.Add(pl.Shuffled(s.name(pl.Name()), s.rng))
	}
	return lib, nil
}

// ContributorRandomizer appends "<name>(shuffled)" for every playlist. It
// runs right after the playlist sources.
type ContributorRandomizer struct {
	shuffler
}

// NewContributorRandomizer creates the plugin.
func NewContributorRandomizer(plugin.Host) *ContributorRandomizer {
	return &ContributorRandomizer{shuffler{
		order: 1,
		name:  func(n string) string { return n + "(shuffled)" },
	}}
}

// Shuffle appends "shuffled-<name>" for every playlist. It runs late so it
// also shuffles what other contributors added.
type Shuffle struct {
	shuffler
}

// NewShuffle creates the plugin.
func NewShuffle(plugin.Host) *Shuffle {
	return &Shuffle{shuffler{
		order: 239,
		name:  func(n string) string { return "shuffled-" + n },
	}}
}
