package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Loader resolves and instantiates plugins from a list of load units.
// It never restores or persists plugins; that belongs to the host.
type Loader struct {
	units   []LoadUnit
	enabled map[string]bool // nil means every id is enabled
	logger  *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnabled restricts loading to the given plugin ids. An empty list
// enables nothing.
func WithEnabled(ids ...string) LoaderOption {
	return func(l *Loader) {
		l.enabled = make(map[string]bool, len(ids))
		for _, id := range ids {
			l.enabled[id] = true
		}
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader over the given units.
func NewLoader(units []LoadUnit, opts ...LoaderOption) *Loader {
	l := &Loader{
		units:  append([]LoadUnit(nil), units...),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "loader")

	return l
}

// Units returns the configured load units.
func (l *Loader) Units() []LoadUnit {
	return l.units
}

// Load resolves every class of every unit, constructs the enabled ones
// against host and returns them as a Registry in load order.
//
// Loading is fail-fast: an unresolvable class, a contract violation, a
// duplicate id or an enabled id that no unit provides aborts the whole load
// and closes all units. No partial plugin set is ever returned.
func (l *Loader) Load(host Host) (*Registry, error) {
	units := make([]Unit, 0, len(l.units))
	for _, lu := range l.units {
		units = append(units, lu.Unit)
	}

	reg := newRegistry(units)
	if err := l.loadInto(reg, host); err != nil {
		if cerr := reg.Close(); cerr != nil {
			l.logger.Warn("closing units after failed load", "error", cerr)
		}
		return nil, err
	}

	l.logger.Info("plugins loaded", "count", reg.Len())
	return reg, nil
}

func (l *Loader) loadInto(reg *Registry, host Host) error {
	for _, lu := range l.units {
		if lu.Unit == nil {
			return errors.New("load unit without code location")
		}
		unit := lu.Unit.Name()

		for _, class := range lu.classes() {
			desc, factory, err := lu.Unit.Resolve(class)
			if err != nil {
				if errors.Is(err, ErrClassNotFound) {
					return err
				}
				return fmt.Errorf("resolve %q in unit %q: %w", class, unit, err)
			}

			if !l.isEnabled(desc.ID) {
				l.logger.Debug("skipping disabled plugin", "unit", unit, "class", class, "id", desc.ID)
				continue
			}

			if prev, exists := reg.byID[desc.ID]; exists {
				return &ContractError{
					Unit:   unit,
					Class:  class,
					Reason: fmt.Sprintf("id %q already provided by %s/%s", desc.ID, prev.Unit, prev.Descriptor.Class),
					Err:    ErrDuplicateID,
				}
			}

			p, err := factory.build(desc.ID, host)
			if err != nil {
				return l.constructError(unit, class, err)
			}

			reg.add(&Entry{Plugin: p, Descriptor: desc, Unit: unit, State: StateLoaded})
			l.logger.Debug("plugin constructed", "unit", unit, "class", class, "id", desc.ID, "shape", factory.Shape().String())
		}
	}

	return l.checkEnabled(reg)
}

// checkEnabled reports the first enabled id, in sorted order, that no unit
// provided.
func (l *Loader) checkEnabled(reg *Registry) error {
	if l.enabled == nil {
		return nil
	}

	ids := make([]string, 0, len(l.enabled))
	for id := range l.enabled {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, ok := reg.byID[id]; !ok {
			return &NotFoundError{Class: id}
		}
	}
	return nil
}

func (l *Loader) isEnabled(id string) bool {
	return l.enabled == nil || l.enabled[id]
}

func (l *Loader) constructError(unit, class string, err error) error {
	var se *errShape
	if errors.As(err, &se) {
		return &ContractError{Unit: unit, Class: class, Reason: se.reason}
	}

	var ce *ContractError
	if errors.As(err, &ce) {
		if ce.Unit == "" {
			ce.Unit = unit
		}
		if ce.Class == "" {
			ce.Class = class
		}
		return ce
	}

	return fmt.Errorf("construct plugin %q in unit %q: %w", class, unit, err)
}
