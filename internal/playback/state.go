// Package playback implements the player state machine: Stopped, Playing and
// Paused states, advancement through playlists and listener notification.
package playback

import (
	"fmt"

	"github.com/dshills/playercore/internal/library"
)

// Kind identifies the variant of a playback State.
type Kind int

// Playback state kinds.
const (
	// KindStopped - nothing is playing. Carries no position.
	KindStopped Kind = iota

	// KindPlaying - a track is playing.
	KindPlaying

	// KindPaused - a track is paused at a position.
	KindPaused
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindStopped:
		return "stopped"
	case KindPlaying:
		return "playing"
	case KindPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Position points at one track of a playlist.
type Position struct {
	Playlist *library.Playlist
	Index    int

	// Resumed is set when playback continues a paused track rather than
	// starting it from the beginning.
	Resumed bool
}

// Track returns the track at the position.
func (p Position) Track() *library.Track {
	return p.Playlist.Track(p.Index)
}

// State is a playback state. The zero value is Stopped.
type State struct {
	Kind     Kind
	Position Position
}

// Stopped returns the stopped state.
func Stopped() State {
	return State{Kind: KindStopped}
}

// Playing returns a state playing the track at index from the start.
func Playing(pl *library.Playlist, index int) State {
	return State{Kind: KindPlaying, Position: Position{Playlist: pl, Index: index}}
}

// Resumed returns a state playing the track at index, continuing after a pause.
func Resumed(pl *library.Playlist, index int) State {
	return State{Kind: KindPlaying, Position: Position{Playlist: pl, Index: index, Resumed: true}}
}

// Paused returns a state paused at the track at index.
func Paused(pl *library.Playlist, index int) State {
	return State{Kind: KindPaused, Position: Position{Playlist: pl, Index: index}}
}

// IsStopped reports whether the state is Stopped.
func (s State) IsStopped() bool { return s.Kind == KindStopped }

// IsPlaying reports whether the state is Playing.
func (s State) IsPlaying() bool { return s.Kind == KindPlaying }

// IsPaused reports whether the state is Paused.
func (s State) IsPaused() bool { return s.Kind == KindPaused }

// HasPosition reports whether the state carries a position.
func (s State) HasPosition() bool {
	return s.Kind == KindPlaying || s.Kind == KindPaused
}

// Validate checks the position invariant: Playing and Paused states point
// inside their playlist, Stopped carries no position.
func (s State) Validate() error {
	switch s.Kind {
	case KindStopped:
		if s.Position != (Position{}) {
			return fmt.Errorf("%w: stopped state carries a position", ErrInvalidState)
		}
		return nil
	case KindPlaying, KindPaused:
		if s.Position.Playlist == nil {
			return fmt.Errorf("%w: %s state without playlist", ErrInvalidState, s.Kind)
		}
		if !s.Position.Playlist.InRange(s.Position.Index) {
			return fmt.Errorf("%w: index %d not in [0, %d)", ErrIndexOutOfRange,
				s.Position.Index, s.Position.Playlist.Len())
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidState, int(s.Kind))
	}
}

// Equal reports whether two states have the same kind, playlist identity,
// index and resumed flag.
func (s State) Equal(o State) bool {
	return s == o
}

// String returns a short description of the state.
func (s State) String() string {
	if !s.HasPosition() {
		return s.Kind.String()
	}
	name := ""
	if s.Position.Playlist != nil {
		name = s.Position.Playlist.Name()
	}
	if s.Position.Resumed {
		return fmt.Sprintf("%s(%s#%d, resumed)", s.Kind, name, s.Position.Index)
	}
	return fmt.Sprintf("%s(%s#%d)", s.Kind, name, s.Position.Index)
}

// IsTrackChange reports whether a transition should be treated as moving to
// a different track. Transitions into or out of Paused are pause toggles and
// never count as track changes.
func IsTrackChange(old, new State) bool {
	return !old.IsPaused() && !new.IsPaused()
}
