package lua

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L *lua.LState

	capabilities map[Capability]bool
}

// Capability represents a permission that can be granted to a unit.
type Capability string

// Available capabilities.
const (
	// CapabilityClock exposes os.time and os.clock, the usual seeds for
	// math.randomseed.
	CapabilityClock Capability = "clock"

	// CapabilityUnsafe opens the full Lua standard library.
	CapabilityUnsafe Capability = "unsafe"
)

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{
		L:            L,
		capabilities: make(map[Capability]bool),
	}
}

// Install sets up the sandbox restrictions and the granted capabilities.
func (s *Sandbox) Install() {
	if s.capabilities[CapabilityUnsafe] {
		s.injectUnsafeLibraries()
		return
	}

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	if s.capabilities[CapabilityClock] {
		s.injectClockAPI()
	}
}

// injectClockAPI installs a minimal os table.
func (s *Sandbox) injectClockAPI() {
	start := time.Now()
	os := s.L.NewTable()
	s.L.SetFuncs(os, map[string]lua.LGFunction{
		"time": func(L *lua.LState) int {
			L.Push(lua.LNumber(time.Now().Unix()))
			return 1
		},
		"clock": func(L *lua.LState) int {
			L.Push(lua.LNumber(time.Since(start).Seconds()))
			return 1
		},
	})
	s.L.SetGlobal("os", os)
}

// injectUnsafeLibraries opens all standard Lua libraries.
// This should only be used for trusted units.
func (s *Sandbox) injectUnsafeLibraries() {
	lua.OpenPackage(s.L)
	lua.OpenIo(s.L)
	lua.OpenOs(s.L)
	lua.OpenDebug(s.L)
}

// Grant grants a capability. Grants take effect at Install.
func (s *Sandbox) Grant(c Capability) {
	s.capabilities[c] = true
}

// HasCapability returns true if the capability is granted.
func (s *Sandbox) HasCapability(c Capability) bool {
	return s.capabilities[c]
}
