package plugin

import (
	"io"
	"log/slog"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/playback"
)

type testHost struct {
	state playback.State
}

func (h *testHost) Library() (*library.Library, error)      { return nil, ErrHostNotReady }
func (h *testHost) PlaybackState() playback.State           { return h.state }
func (h *testHost) SetPlaybackState(s playback.State) error { h.state = s; return nil }
func (h *testHost) Settings(string) map[string]any          { return nil }
func (h *testHost) Logger() *slog.Logger                    { return slog.New(slog.DiscardHandler) }

// basic is a no-arg plugin.
type basic struct {
	Base
}

func (p *basic) Restore(io.Reader) error { return nil }
func (p *basic) Persist(io.Writer) error { return nil }

// hosted is built through a host constructor and keeps its own host field.
type hosted struct {
	id   string
	host Host
}

func (p *hosted) ID() string              { return p.id }
func (p *hosted) Restore(io.Reader) error { return nil }
func (p *hosted) Persist(io.Writer) error { return nil }

// contributor adds capability coverage for FindSingle.
type contributor struct {
	Base
}

func (p *contributor) Restore(io.Reader) error { return nil }
func (p *contributor) Persist(io.Writer) error { return nil }
func (p *contributor) PreferredOrder() int     { return 0 }
func (p *contributor) Contribute(lib *library.Library) (*library.Library, error) {
	return lib, nil
}

// slotless is a no-arg plugin without the Base slot.
type slotless struct{}

func (slotless) ID() string              { return "slotless" }
func (slotless) Restore(io.Reader) error { return nil }
func (slotless) Persist(io.Writer) error { return nil }

func hostedFactory(id string) Factory {
	return WithHost(func(h Host) (Plugin, error) {
		return &hosted{id: id, host: h}, nil
	})
}
