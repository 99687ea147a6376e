package plugin

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// Entry is one loaded plugin and where it came from.
type Entry struct {
	Plugin     Plugin
	Descriptor Descriptor
	Unit       string
	State      State
}

// assignableTo reports whether the entry matches a class name exactly, or
// is assignable to it through a declared supertype or capability.
func (e *Entry) assignableTo(name string) (exact, assignable bool) {
	if e.Descriptor.Class == name {
		return true, true
	}
	if lo.Contains(e.Descriptor.Implements, name) {
		return false, true
	}
	return false, lo.Contains(Capabilities(e.Plugin), name)
}

// Registry is the typed lookup over loaded plugin instances. Iteration is
// always in load order.
type Registry struct {
	entries []*Entry
	byID    map[string]*Entry
	units   []Unit
}

func newRegistry(units []Unit) *Registry {
	return &Registry{
		byID:  make(map[string]*Entry),
		units: units,
	}
}

func (r *Registry) add(e *Entry) {
	r.entries = append(r.entries, e)
	r.byID[e.Descriptor.ID] = e
}

// Len returns the number of loaded plugins.
func (r *Registry) Len() int {
	return len(r.entries)
}

// All returns every loaded plugin in load order.
func (r *Registry) All() []Plugin {
	return lo.Map(r.entries, func(e *Entry, _ int) Plugin {
		return e.Plugin
	})
}

// Entries returns a snapshot of every entry in load order.
func (r *Registry) Entries() []Entry {
	return lo.Map(r.entries, func(e *Entry, _ int) Entry {
		return *e
	})
}

// IDs returns plugin ids in load order.
func (r *Registry) IDs() []string {
	return lo.Map(r.entries, func(e *Entry, _ int) string {
		return e.Descriptor.ID
	})
}

// Get returns a plugin by id.
func (r *Registry) Get(id string) (Plugin, bool) {
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.Plugin, true
}

// SetState records the lifecycle state of a plugin.
func (r *Registry) SetState(id string, s State) {
	if e, ok := r.byID[id]; ok {
		e.State = s
	}
}

// Usable returns the plugins whose state allows them to take part in the
// session, in load order.
func (r *Registry) Usable() []Plugin {
	return lo.FilterMap(r.entries, func(e *Entry, _ int) (Plugin, bool) {
		return e.Plugin, e.State.IsUsable()
	})
}

// Filter returns every loaded plugin implementing T, in load order.
func Filter[T any](r *Registry) []T {
	return lo.FilterMap(r.entries, func(e *Entry, _ int) (T, bool) {
		t, ok := e.Plugin.(T)
		return t, ok
	})
}

// Contributors returns every library contributor in load order.
func (r *Registry) Contributors() []LibraryContributor {
	return Filter[LibraryContributor](r)
}

// Listeners returns every playback listener in load order.
func (r *Registry) Listeners() []PlaybackListener {
	return Filter[PlaybackListener](r)
}

// FindSingle returns the one plugin matching className. A plugin matches
// when its class is exactly className or it is assignable to className.
// When several plugins are assignable but exactly one matches exactly, the
// exact match wins. Any other ambiguity, or no match, reports false.
func (r *Registry) FindSingle(className string) (Plugin, bool) {
	var exact, candidates []*Entry
	for _, e := range r.entries {
		isExact, isAssignable := e.assignableTo(className)
		if isExact {
			exact = append(exact, e)
		}
		if isAssignable {
			candidates = append(candidates, e)
		}
	}

	switch {
	case len(candidates) == 1:
		return candidates[0].Plugin, true
	case len(exact) == 1:
		return exact[0].Plugin, true
	default:
		return nil, false
	}
}

// Close releases every load unit. Units are closed in reverse order.
func (r *Registry) Close() error {
	var errs []error
	for i := len(r.units) - 1; i >= 0; i-- {
		if err := r.units[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.units[i].Name(), err))
		}
	}
	r.units = nil

	if len(errs) > 0 {
		return fmt.Errorf("failed to close %d units: %w", len(errs), errors.Join(errs...))
	}
	return nil
}
