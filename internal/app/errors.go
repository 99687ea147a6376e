package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed indicates the application has been shut down.
	ErrClosed = errors.New("application closed")

	// ErrAlreadyInitialized indicates Init was called more than once.
	ErrAlreadyInitialized = errors.New("application already initialized")

	// ErrUnknownCatalog indicates a native unit names a catalog the
	// application does not ship.
	ErrUnknownCatalog = errors.New("unknown plugin catalog")

	// ErrPlaylistNotFound indicates no playlist has the requested name.
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// Startup stages, in order.
const (
	StageUnits   = "units"
	StageLoad    = "load"
	StageRestore = "restore"
	StageLibrary = "library"
)

// InitError reports the startup stage that failed.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
