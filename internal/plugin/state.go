package plugin

// State represents the host-side lifecycle state of a loaded plugin.
type State int

// Plugin states.
const (
	// StateLoaded - Plugin is constructed and attached to the host.
	StateLoaded State = iota

	// StateRestored - Plugin state has been restored; the plugin is in use.
	StateRestored

	// StatePersisted - Plugin state has been written at shutdown.
	StatePersisted

	// StateError - Restoring or persisting the plugin failed.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateRestored:
		return "restored"
	case StatePersisted:
		return "persisted"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsUsable returns true if the plugin may take part in contribution and
// playback dispatch.
func (s State) IsUsable() bool {
	return s == StateRestored
}
