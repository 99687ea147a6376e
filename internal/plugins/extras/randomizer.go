package extras

import (
	"io"
	"math/rand/v2"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
	"github.com/dshills/playercore/internal/plugins/settings"
)

// ListenerRandomizer plays each playlist in a random order. Whenever a new
// track starts it redirects playback to the next track of a permutation by
// issuing a nested transition through the host, and stops once every track
// has been played.
type ListenerRandomizer struct {
	plugin.Base

	rng *rand.Rand

	playlist *library.Playlist
	perm     []int
	next     int

	// redirected is set while the transition this plugin issued is being
	// delivered back to it.
	redirected bool
}

// NewListenerRandomizer creates the plugin.
func NewListenerRandomizer(plugin.Host) *ListenerRandomizer {
	return &ListenerRandomizer{}
}

// Restore seeds the generator from the settings. No state is kept.
func (l *ListenerRandomizer) Restore(io.Reader) error {
	l.rng = settings.Rand(l.Host().Settings(l.ID()))
	return nil
}

// Persist writes nothing.
func (l *ListenerRandomizer) Persist(io.Writer) error {
	return nil
}

// OnPlaybackStateChange redirects each track start to the next track of the
// permutation.
func (l *ListenerRandomizer) OnPlaybackStateChange(old, new playback.State) error {
	if new.IsStopped() {
		l.playlist = nil
		return nil
	}
	if !playback.IsTrackChange(old, new) {
		return nil
	}

	if pl := new.Position.Playlist; pl != l.playlist {
		if l.rng == nil {
			l.rng = settings.Rand(nil)
		}
		l.playlist = pl
		l.perm = l.rng.Perm(pl.Len())
		l.next = 0
		l.redirected = false
	}

	if l.redirected {
		l.redirected = false
		return nil
	}

	if l.next == len(l.perm) {
		return l.Host().SetPlaybackState(playback.Stopped())
	}

	l.redirected = true
	target := playback.Playing(l.playlist, l.perm[l.next])
	l.next++
	if err := l.Host().SetPlaybackState(target); err != nil {
		l.redirected = false
		return err
	}
	return nil
}

// Permutation returns the play order of the current playlist.
func (l *ListenerRandomizer) Permutation() []int {
	return append([]int(nil), l.perm...)
}
