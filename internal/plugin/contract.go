package plugin

import (
	"io"
	"log/slog"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/playback"
)

// Plugin is the base contract every plugin satisfies.
type Plugin interface {
	// ID returns the stable plugin id.
	ID() string

	// Restore initializes the plugin from its persisted state. A nil
	// reader means there is no saved state and defaults must be used.
	Restore(state io.Reader) error

	// Persist writes the plugin state. The host owns w: the plugin must
	// not close it and must not expect to read back what it wrote.
	Persist(w io.Writer) error
}

// LibraryContributor takes part in building the aggregate library.
// Lower PreferredOrder values run first.
type LibraryContributor interface {
	Plugin
	PreferredOrder() int
	Contribute(lib *library.Library) (*library.Library, error)
}

// PlaybackListener is notified on every playback state transition.
type PlaybackListener interface {
	Plugin
	OnPlaybackStateChange(old, new playback.State) error
}

// Host is the surface a plugin sees of the application hosting it.
// Library and SetPlaybackState return ErrHostNotReady until the host has
// finished its startup sequence.
type Host interface {
	Library() (*library.Library, error)
	PlaybackState() playback.State
	SetPlaybackState(s playback.State) error
	Settings(pluginID string) map[string]any
	Logger() *slog.Logger
}

// Capability names usable with Registry.FindSingle.
const (
	CapabilityPlugin      = "MusicPlugin"
	CapabilityContributor = "LibraryContributor"
	CapabilityListener    = "PlaybackListener"
)

// Base is embedded by plugins to receive their id and host back-reference.
// Both are assigned by the host during loading, before Restore is called.
type Base struct {
	id   string
	host Host
}

// ID returns the id assigned by the host.
func (b *Base) ID() string {
	return b.id
}

// Host returns the host back-reference.
func (b *Base) Host() Host {
	return b.host
}

func (b *Base) attach(id string, host Host) {
	b.id = id
	b.host = host
}

// hostSlot is satisfied by any type embedding Base.
type hostSlot interface {
	attach(id string, host Host)
}

// Capabilities returns the capability names implemented by p.
func Capabilities(p Plugin) []string {
	caps := []string{CapabilityPlugin}
	if _, ok := p.(LibraryContributor); ok {
		caps = append(caps, CapabilityContributor)
	}
	if _, ok := p.(PlaybackListener); ok {
		caps = append(caps, CapabilityListener)
	}
	return caps
}
