package lua

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/playercore/internal/plugin"
)

// Unit is a Lua load unit: one sandboxed Lua state holding the classes
// defined by its scripts. Classes never leak between units.
type Unit struct {
	name    string
	state   *State
	bridge  *Bridge
	classes map[string]*classDef

	timeout time.Duration
	caps    []Capability
	logger  *slog.Logger
}

// classDef is a class registered through define_plugin.
type classDef struct {
	desc  plugin.Descriptor
	tbl   *lua.LTable
	order int
}

// Option configures a Unit.
type Option func(*Unit)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Unit) {
		u.logger = logger
	}
}

// WithTimeout sets the execution timeout for each call into the unit.
func WithTimeout(d time.Duration) Option {
	return func(u *Unit) {
		u.timeout = d
	}
}

// Open loads the unit in dir, running its scripts in manifest order.
func Open(dir string, opts ...Option) (*Unit, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	if len(m.Scripts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoScripts, dir)
	}

	u := newUnit(m.Name, m.Capabilities, opts)
	for i, path := range m.ScriptPaths() {
		if err := u.state.DoFile(path); err != nil {
			u.Close()
			return nil, &ScriptError{Unit: u.name, Op: "run " + m.Scripts[i], Err: err}
		}
	}

	u.logger.Debug("lua unit opened", "dir", dir, "classes", len(u.classes))
	return u, nil
}

// Load creates a unit from in-memory sources, run in order.
func Load(name string, sources []string, opts ...Option) (*Unit, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoScripts, name)
	}

	u := newUnit(name, nil, opts)
	for i, src := range sources {
		if err := u.state.DoString(src); err != nil {
			u.Close()
			return nil, &ScriptError{Unit: name, Op: fmt.Sprintf("run source %d", i+1), Err: err}
		}
	}
	return u, nil
}

func newUnit(name string, caps []Capability, opts []Option) *Unit {
	u := &Unit{
		name:    name,
		classes: make(map[string]*classDef),
		timeout: DefaultExecutionTimeout,
		caps:    caps,
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.With("component", "lua", "unit", name)

	u.state = NewState(WithExecutionTimeout(u.timeout), WithCapabilities(u.caps...))
	u.bridge = NewBridge(u.state.L)
	u.state.RegisterFunc("define_plugin", u.definePlugin)
	_ = u.state.Do(func(L *lua.LState) error {
		registerLibraryType(L, u.bridge)
		return nil
	})

	return u
}

// definePlugin implements define_plugin(class, tbl).
func (u *Unit) definePlugin(L *lua.LState) int {
	class := L.CheckString(1)
	tbl := L.CheckTable(2)

	if _, exists := u.classes[class]; exists {
		L.RaiseError("%v: %s", plugin.ErrDuplicateClass, class)
		return 0
	}

	id, ok := u.bridge.GetTableString(tbl, "id")
	if !ok || id == "" {
		id = class
	}
	order, _ := u.bridge.GetTableInt(tbl, "preferred_order")

	u.classes[class] = &classDef{
		desc: plugin.Descriptor{
			Class:      class,
			ID:         id,
			Implements: u.bridge.GetTableStrings(tbl, "implements"),
		},
		tbl:   tbl,
		order: order,
	}

	L.Push(tbl)
	return 1
}

// Name implements plugin.Unit.
func (u *Unit) Name() string {
	return u.name
}

// Classes implements plugin.Unit.
func (u *Unit) Classes() []string {
	names := make([]string, 0, len(u.classes))
	for name := range u.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve implements plugin.Unit. The construction shape is read from the
// declared parameter count of the class's new function: one parameter
// receives the host table, none means the instance declares a host slot.
func (u *Unit) Resolve(class string) (plugin.Descriptor, plugin.Factory, error) {
	def, ok := u.classes[class]
	if !ok {
		return plugin.Descriptor{}, plugin.Factory{}, &plugin.NotFoundError{Unit: u.name, Class: class}
	}

	fn, ok := def.tbl.RawGetString("new").(*lua.LFunction)
	if !ok || fn.IsG {
		return def.desc, plugin.Invalid("class table has no Lua new function"), nil
	}

	switch n := fn.Proto.NumParameters; n {
	case 1:
		return def.desc, plugin.WithHost(func(h plugin.Host) (plugin.Plugin, error) {
			return u.construct(def, fn, h)
		}), nil
	case 0:
		return def.desc, plugin.NoArg(func() (plugin.Plugin, error) {
			return u.construct(def, fn, nil)
		}), nil
	default:
		return def.desc, plugin.Invalid(fmt.Sprintf("new declares %d parameters; want the host or none", n)), nil
	}
}

// Close implements plugin.Unit.
func (u *Unit) Close() error {
	return u.state.Close()
}

var errNoInstance = errors.New("new returned no value")

// construct calls new and wraps the instance. A nil host selects the no-arg
// shape.
func (u *Unit) construct(def *classDef, fn *lua.LFunction, host plugin.Host) (plugin.Plugin, error) {
	var (
		self     *lua.LTable
		reason   string
		contrib  bool
		listener bool
	)

	err := u.state.Do(func(L *lua.LState) error {
		var args []lua.LValue
		if host != nil {
			args = append(args, u.hostTable(L, host, def.desc.ID))
		}

		ret, err := Call(L, fn, args...)
		if err != nil {
			return err
		}
		if len(ret) == 0 || ret[0] == lua.LNil {
			return errNoInstance
		}

		t, ok := ret[0].(*lua.LTable)
		if !ok {
			reason = fmt.Sprintf("new returned a %s, want a table", ret[0].Type())
			return nil
		}
		for _, method := range []string{"restore", "persist"} {
			if L.GetField(t, method).Type() != lua.LTFunction {
				reason = fmt.Sprintf("instance has no %s method", method)
				return nil
			}
		}
		if host == nil && L.GetField(t, "host") == lua.LNil {
			reason = "no-arg plugin has no settable host slot (declare host = false)"
			return nil
		}

		self = t
		contrib = L.GetField(t, "contribute").Type() == lua.LTFunction
		listener = L.GetField(t, "on_playback_state_change").Type() == lua.LTFunction
		return nil
	})
	if err != nil {
		return nil, &ScriptError{Unit: u.name, Plugin: def.desc.Class, Op: "new", Err: err}
	}
	if reason != "" {
		return nil, &plugin.ContractError{Unit: u.name, Class: def.desc.Class, Reason: reason}
	}

	p := &scriptPlugin{
		unit:      u,
		self:      self,
		order:     def.order,
		hostBound: host != nil,
	}

	switch {
	case contrib && listener:
		return &scriptContributorListener{p}, nil
	case contrib:
		return &scriptContributor{p}, nil
	case listener:
		return &scriptListener{p}, nil
	default:
		return p, nil
	}
}
