package plugin

import (
	"errors"
	"fmt"
)

// Plugin system errors.
var (
	// ErrClassNotFound is returned when a declared plugin class cannot be
	// resolved from its load unit.
	ErrClassNotFound = errors.New("plugin class not found")

	// ErrContractViolation is returned when a class resolves but does not
	// satisfy the plugin contract.
	ErrContractViolation = errors.New("plugin contract violation")

	// ErrDuplicateID is returned when two loaded plugins share an id.
	ErrDuplicateID = errors.New("duplicate plugin id")

	// ErrDuplicateClass is returned when a unit registers a class twice.
	ErrDuplicateClass = errors.New("plugin class already registered")

	// ErrHostNotReady is returned by host operations used before startup
	// has completed.
	ErrHostNotReady = errors.New("host startup not complete")
)

// NotFoundError reports a plugin class that could not be resolved. Unit is
// empty when an enabled id was not provided by any load unit.
type NotFoundError struct {
	Unit  string
	Class string
}

func (e *NotFoundError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("enabled plugin %q is not provided by any load unit", e.Class)
	}
	return fmt.Sprintf("plugin class %q not found in unit %q", e.Class, e.Unit)
}

func (e *NotFoundError) Unwrap() error {
	return ErrClassNotFound
}

// ContractError reports a class that resolved but violates the plugin
// contract, naming the offending class.
type ContractError struct {
	Unit   string
	Class  string
	Reason string
	Err    error
}

func (e *ContractError) Error() string {
	msg := fmt.Sprintf("plugin class %q in unit %q violates the plugin contract: %s", e.Class, e.Unit, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrContractViolation) hold for every ContractError.
func (e *ContractError) Is(target error) bool {
	return target == ErrContractViolation
}

func (e *ContractError) Unwrap() error {
	return e.Err
}
