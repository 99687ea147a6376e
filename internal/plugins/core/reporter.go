package core

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
)

// PlaybackReporter logs every track change and counts the tracks started
// across runs.
type PlaybackReporter struct {
	plugin.Base

	started int
}

// NewPlaybackReporter creates the plugin.
func NewPlaybackReporter(plugin.Host) *PlaybackReporter {
	return &PlaybackReporter{}
}

// Restore reads the started-track counter.
func (p *PlaybackReporter) Restore(r io.Reader) error {
	p.started = 0
	if r == nil {
		return nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("bad counter %q: %w", s, err)
		}
		p.started = n
	}
	return nil
}

// Persist writes the started-track counter.
func (p *PlaybackReporter) Persist(w io.Writer) error {
	_, err := io.WriteString(w, strconv.Itoa(p.started))
	return err
}

// OnPlaybackStateChange logs the transition. Pausing and resuming are
// reported but do not count as starting a track.
func (p *PlaybackReporter) OnPlaybackStateChange(old, new playback.State) error {
	log := p.Host().Logger()

	switch {
	case new.IsStopped():
		log.Info("stopped")
	case new.IsPaused():
		log.Info("paused", "track", trackName(new))
	case !playback.IsTrackChange(old, new):
		log.Info("resumed", "track", trackName(new))
	default:
		p.started++
		log.Info("now playing",
			"track", trackName(new),
			"artist", new.Position.Track().Value(library.KeyArtist),
			"playlist", new.Position.Playlist.Name(),
			"position", new.Position.Index+1,
		)
	}
	return nil
}

// Started returns the number of tracks started, including earlier runs.
func (p *PlaybackReporter) Started() int {
	return p.started
}

func trackName(s playback.State) string {
	return s.Position.Track().Value(library.KeyName)
}
