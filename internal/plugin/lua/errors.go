package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua unit operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call runs past the execution
	// timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoScripts is returned when a unit directory contains no scripts.
	ErrNoScripts = errors.New("lua unit has no scripts")
)

// ScriptError reports a failure raised by Lua code, naming the unit and the
// plugin involved. Plugin is the class name during construction and the
// plugin id afterwards.
type ScriptError struct {
	Unit   string
	Plugin string
	Op     string
	Err    error
}

func (e *ScriptError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("lua unit %q: %s: %v", e.Unit, e.Op, e.Err)
	}
	return fmt.Sprintf("lua plugin %q in unit %q: %s: %v", e.Plugin, e.Unit, e.Op, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
