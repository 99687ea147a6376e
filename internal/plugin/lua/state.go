package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single call from the host into Lua.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps gopher-lua with serialized, sandboxed execution.
//
// gopher-lua's LState is not goroutine-safe: every entry from Go goes
// through Do, which holds the state lock. Go functions called from Lua may
// need to re-enter the state on the same call stack (a listener stopping
// playback is notified of its own transition); they do so inside Escape.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	escaped atomic.Int32

	executionTimeout time.Duration
	sandbox          *Sandbox
	closed           bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout for each outermost call into Lua.
// Zero disables the timeout.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithCapabilities grants sandbox capabilities before any script runs.
func WithCapabilities(caps ...Capability) StateOption {
	return func(s *State) {
		for _, c := range caps {
			s.sandbox.Grant(c)
		}
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	state := &State{
		L:                L,
		executionTimeout: DefaultExecutionTimeout,
		sandbox:          NewSandbox(L),
	}

	for _, opt := range opts {
		opt(state)
	}

	openSafeLibraries(L)
	state.sandbox.Install()

	return state
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Not opened: io, os, debug, package.
}

// Do runs fn against the Lua state. The outermost Do holds the state lock
// and applies the execution timeout; calls nested inside Escape run on the
// already-held state.
func (s *State) Do(fn func(L *lua.LState) error) error {
	if s.escaped.Load() > 0 {
		return s.run(fn)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	if s.executionTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.executionTimeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()

		err := s.run(fn)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
		return err
	}

	return s.run(fn)
}

// Escape runs a Go callback invoked from Lua that may call back into the
// state through Do.
func (s *State) Escape(fn func() error) error {
	s.escaped.Add(1)
	defer s.escaped.Add(-1)
	return fn()
}

// run executes fn with panic recovery.
func (s *State) run(fn func(L *lua.LState) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn(s.L)
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.Do(func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

// DoString executes a Lua string.
func (s *State) DoString(code string) error {
	return s.Do(func(L *lua.LState) error {
		return L.DoString(code)
	})
}

// Call calls fn with args and returns its results. Must be used inside Do.
// Returns an empty slice (not nil) if the function returns no values.
func Call(L *lua.LState, fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("not a function (got %s)", fn.Type())
	}

	top := L.GetTop()
	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}
	if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
		return nil, err
	}

	n := L.GetTop() - top
	if n <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = L.Get(top + i + 1)
	}
	L.Pop(n)

	return results, nil
}

// RegisterFunc registers a Go function as a global Lua function.
func (s *State) RegisterFunc(name string, fn lua.LGFunction) {
	_ = s.Do(func(L *lua.LState) error {
		L.SetGlobal(name, L.NewFunction(fn))
		return nil
	})
}

// Sandbox returns the sandbox for capability management.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, Do returns ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
