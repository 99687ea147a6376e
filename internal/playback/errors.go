package playback

import (
	"errors"
	"fmt"
)

// Playback errors.
var (
	// ErrInvalidState is returned when a state violates its invariants.
	ErrInvalidState = errors.New("invalid playback state")

	// ErrIndexOutOfRange is returned when a position lies outside its playlist.
	ErrIndexOutOfRange = errors.New("track index out of range")

	// ErrNotPlaying is returned by Pause when nothing is playing.
	ErrNotPlaying = errors.New("playback is not playing")

	// ErrNotPaused is returned by Resume when playback is not paused.
	ErrNotPaused = errors.New("playback is not paused")
)

// ListenerError wraps a failure raised by a playback listener. The
// transition that triggered it has already been applied.
type ListenerError struct {
	Listener string
	Old, New State
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s failed on %s -> %s: %v", e.Listener, e.Old, e.New, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}
