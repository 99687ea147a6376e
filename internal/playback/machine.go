package playback

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dshills/playercore/internal/library"
)

// Listener is notified on every state transition.
type Listener interface {
	ID() string
	OnPlaybackStateChange(old, new State) error
}

// Observer receives transition and listener-failure notifications, e.g. for
// metrics. It must not call back into the machine.
type Observer interface {
	Transition(old, new State)
	ListenerFailed(listener string, err error)
}

// Machine is the playback state machine.
//
// The model is single-threaded and cooperative. The mutex only protects the
// current state; it is never held while calling the output or listeners, so
// a listener may request a nested transition from inside its callback.
type Machine struct {
	mu    sync.Mutex
	state State

	listeners []Listener
	output    Output
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithOutput sets the audio output. Defaults to NopOutput.
func WithOutput(out Output) Option {
	return func(m *Machine) {
		m.output = out
	}
}

// WithObserver sets the transition observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		m.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// NewMachine creates a stopped machine notifying listeners in the given order.
func NewMachine(listeners []Listener, opts ...Option) *Machine {
	m := &Machine{
		state:     Stopped(),
		listeners: append([]Listener(nil), listeners...),
		output:    NopOutput{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "playback")
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Listeners returns the listeners in notification order.
func (m *Machine) Listeners() []Listener {
	return append([]Listener(nil), m.listeners...)
}

// Set transitions to next and notifies every listener with (old, next).
// Invalid states are rejected before anything changes. A listener failure
// stops notification and is returned as a *ListenerError; the transition
// itself stays applied.
func (m *Machine) Set(next State) error {
	if err := next.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	old := m.state
	m.state = next
	m.mu.Unlock()

	m.logger.Debug("transition", "from", old.String(), "to", next.String())
	m.drive(next)
	if m.observer != nil {
		m.observer.Transition(old, next)
	}

	return m.notify(old, next)
}

// Start begins playback of pl at index from.
func (m *Machine) Start(pl *library.Playlist, from int) error {
	if pl == nil || !pl.InRange(from) {
		n := 0
		if pl != nil {
			n = pl.Len()
		}
		return fmt.Errorf("%w: start at %d of %d", ErrIndexOutOfRange, from, n)
	}
	return m.Set(Playing(pl, from))
}

// FinishedTrack advances to the next track of the current playlist, or stops
// when the playlist is exhausted. It reports whether playback continues.
// From Stopped it does nothing.
func (m *Machine) FinishedTrack() (bool, error) {
	cur := m.State()
	if !cur.HasPosition() {
		return false, nil
	}

	next := cur.Position.Index + 1
	if cur.Position.Playlist.InRange(next) {
		return true, m.Set(Playing(cur.Position.Playlist, next))
	}
	return false, m.Set(Stopped())
}

// Pause pauses the current track.
func (m *Machine) Pause() error {
	cur := m.State()
	if !cur.IsPlaying() {
		return ErrNotPlaying
	}
	return m.Set(Paused(cur.Position.Playlist, cur.Position.Index))
}

// Resume continues a paused track.
func (m *Machine) Resume() error {
	cur := m.State()
	if !cur.IsPaused() {
		return ErrNotPaused
	}
	return m.Set(Resumed(cur.Position.Playlist, cur.Position.Index))
}

// Stop stops playback. Stopping while stopped still notifies listeners.
func (m *Machine) Stop() error {
	return m.Set(Stopped())
}

// Close stops the output and releases it.
func (m *Machine) Close() error {
	m.output.Stop()
	return m.output.Close()
}

// drive forwards a transition to the output.
func (m *Machine) drive(next State) {
	switch next.Kind {
	case KindPlaying:
		if err := m.output.Play(next.Position.Track(), next.Position.Resumed); err != nil {
			m.logger.Warn("output failed", "error", err)
		}
	case KindPaused:
		m.output.Pause()
	case KindStopped:
		m.output.Stop()
	}
}

// notify calls every listener in order. Panics are recovered and reported
// like returned errors.
func (m *Machine) notify(old, next State) error {
	for _, l := range m.listeners {
		if err := callListener(l, old, next); err != nil {
			if m.observer != nil {
				m.observer.ListenerFailed(l.ID(), err)
			}
			return &ListenerError{Listener: l.ID(), Old: old, New: next, Err: err}
		}
	}
	return nil
}

func callListener(l Listener, old, next State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l.OnPlaybackStateChange(old, next)
}
