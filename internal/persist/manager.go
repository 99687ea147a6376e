package persist

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/dshills/playercore/internal/plugin"
)

// Error reports a plugin whose state could not be restored or persisted.
type Error struct {
	Plugin string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s plugin %q: %v", e.Op, e.Plugin, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager drives plugin Restore and Persist against a Store.
type Manager struct {
	store     *Store
	logger    *slog.Logger
	onPersist func(id string, n int)

	closed atomic.Bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithPersistHook sets a function called with the size of every blob
// written.
func WithPersistHook(fn func(id string, n int)) ManagerOption {
	return func(m *Manager) {
		m.onPersist = fn
	}
}

// NewManager creates a manager over store.
func NewManager(store *Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "persist")
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() *Store {
	return m.store
}

// Restore hands p its stored blob, or nil on first run.
func (m *Manager) Restore(p plugin.Plugin) error {
	rc, err := m.store.Open(p.ID())
	if err != nil {
		return &Error{Plugin: p.ID(), Op: "restore", Err: err}
	}
	if rc == nil {
		m.logger.Debug("no saved state", "plugin", p.ID())
		if err := restore(p, nil); err != nil {
			return &Error{Plugin: p.ID(), Op: "restore", Err: err}
		}
		return nil
	}
	defer rc.Close()

	if err := restore(p, rc); err != nil {
		return &Error{Plugin: p.ID(), Op: "restore", Err: err}
	}
	return nil
}

// RestoreAll restores plugins in order, stopping at the first failure.
func (m *Manager) RestoreAll(plugins []plugin.Plugin) error {
	for _, p := range plugins {
		if err := m.Restore(p); err != nil {
			return err
		}
	}
	return nil
}

// PersistAll persists every plugin exactly once over the manager's
// lifetime; later calls do nothing. A failing plugin does not stop the
// others. It reports whether this call performed the persist.
func (m *Manager) PersistAll(plugins []plugin.Plugin) (bool, error) {
	if !m.closed.CompareAndSwap(false, true) {
		return false, nil
	}

	var errs []error
	for _, p := range plugins {
		n, err := m.store.Write(p.ID(), persistFunc(p))
		if err != nil {
			m.logger.Error("persist failed", "plugin", p.ID(), "error", err)
			errs = append(errs, &Error{Plugin: p.ID(), Op: "persist", Err: err})
			continue
		}
		m.logger.Debug("state persisted", "plugin", p.ID(), "bytes", n)
		if m.onPersist != nil {
			m.onPersist(p.ID(), n)
		}
	}
	return true, errors.Join(errs...)
}

// Closed reports whether PersistAll has run.
func (m *Manager) Closed() bool {
	return m.closed.Load()
}

// restore calls p.Restore, recovering panics.
func restore(p plugin.Plugin, r io.Reader) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	return p.Restore(r)
}

// persistFunc wraps p.Persist so a panic fails only this plugin's write.
func persistFunc(p plugin.Plugin) func(io.Writer) error {
	return func(w io.Writer) (err error) {
		defer func() {
			if v := recover(); v != nil {
				err = fmt.Errorf("panic: %v", v)
			}
		}()
		return p.Persist(w)
	}
}
