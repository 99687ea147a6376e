package extras

import (
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugins/settings"
)

// reshuffleEvery is the number of runs a playlist order is kept for.
const reshuffleEvery = 3

// ShuffledPlaylists contributes its own "beeps" and "samples" playlists in
// an order that is reshuffled every third run. The order survives restarts.
//
// Settings: dir (where the sound files live, default "sounds"), seed.
type ShuffledPlaylists struct {
	plugin.Base

	playlists []*library.Playlist
	rng       *rand.Rand

	runs  int
	order []int
}

// NewShuffledPlaylists creates the plugin.
func NewShuffledPlaylists(plugin.Host) *ShuffledPlaylists {
	return &ShuffledPlaylists{}
}

func soundPlaylist(dir, kind string) *library.Playlist {
	tracks := make([]*library.Track, 4)
	for i := range tracks {
		n := i + 1
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.mp3", kind, n))
		tracks[i] = library.NewTrack(map[string]string{
			library.KeyArtist: fmt.Sprintf("%s%dArtist", kind, n),
			library.KeyName:   fmt.Sprintf("%s-%d", kind, n),
			library.KeyPath:   path,
		}, library.FileSource(path))
	}
	return library.NewPlaylist(kind+"s", tracks)
}

// Restore builds the playlists and reads the saved order. A saved order
// that does not fit the playlists is discarded.
func (p *ShuffledPlaylists) Restore(r io.Reader) error {
	s := p.Host().Settings(p.ID())
	dir := settings.String(s, "dir", "sounds")
	p.playlists = []*library.Playlist{soundPlaylist(dir, "beep"), soundPlaylist(dir, "sample")}
	p.rng = settings.Rand(s)

	p.runs = 0
	p.order = nil

	doc, ok, err := readBlob(r)
	if err != nil || !ok {
		return err
	}

	var order []int
	doc.Get("order").ForEach(func(_, v gjson.Result) bool {
		order = append(order, int(v.Int()))
		return true
	})
	if !isPermutation(order, len(p.playlists)) {
		return nil
	}
	p.runs = int(doc.Get("runs").Int()) % reshuffleEvery
	p.order = order
	return nil
}

// Persist writes the run counter and playlist order.
func (p *ShuffledPlaylists) Persist(w io.Writer) error {
	blob, err := sjson.SetBytes([]byte(`{}`), "runs", p.runs)
	if err != nil {
		return err
	}
	order := p.order
	if order == nil {
		order = []int{}
	}
	if blob, err = sjson.SetBytes(blob, "order", order); err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}

// PreferredOrder implements plugin.LibraryContributor.
func (p *ShuffledPlaylists) PreferredOrder() int {
	return 0
}

// Contribute appends the playlists in the current order, drawing a new
// order first when due.
func (p *ShuffledPlaylists) Contribute(lib *library.Library) (*library.Library, error) {
	if p.rng == nil {
		p.rng = settings.Rand(nil)
	}
	if p.runs == 0 || p.order == nil {
		p.order = p.rng.Perm(len(p.playlists))
	}
	for _, i := range p.order {
		lib.Add(p.playlists[i])
	}
	p.runs = (p.runs + 1) % reshuffleEvery
	return lib, nil
}

// Order returns the current playlist order.
func (p *ShuffledPlaylists) Order() []int {
	return append([]int(nil), p.order...)
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}
