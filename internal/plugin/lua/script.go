package lua

import (
	"fmt"
	"io"
	"maps"
	"slices"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
)

// scriptPlugin adapts a Lua instance table to plugin.Plugin.
type scriptPlugin struct {
	plugin.Base

	unit      *Unit
	self      *lua.LTable
	order     int
	hostBound bool
}

// invoke calls self:method(args...). args runs inside the state lock so it
// may allocate Lua values.
func (p *scriptPlugin) invoke(method string, args func(L *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	var ret []lua.LValue
	err := p.unit.state.Do(func(L *lua.LState) error {
		p.bindHost(L)

		callArgs := []lua.LValue{p.self}
		if args != nil {
			callArgs = append(callArgs, args(L)...)
		}

		var err error
		ret, err = Call(L, L.GetField(p.self, method), callArgs...)
		return err
	})
	if err != nil {
		return nil, &ScriptError{Unit: p.unit.name, Plugin: p.ID(), Op: method, Err: err}
	}
	return ret, nil
}

// bindHost fills the host slot of a no-arg instance once the host has been
// attached.
func (p *scriptPlugin) bindHost(L *lua.LState) {
	if p.hostBound || p.Host() == nil {
		return
	}
	L.SetField(p.self, "host", p.unit.hostTable(L, p.Host(), p.ID()))
	p.hostBound = true
}

// Restore implements plugin.Plugin.
func (p *scriptPlugin) Restore(r io.Reader) error {
	blob := lua.LValue(lua.LNil)
	if r != nil {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		blob = lua.LString(data)
	}

	_, err := p.invoke("restore", func(*lua.LState) []lua.LValue {
		return []lua.LValue{blob}
	})
	return err
}

// Persist implements plugin.Plugin. The persist method returns a string
// blob, or nil to write nothing.
func (p *scriptPlugin) Persist(w io.Writer) error {
	ret, err := p.invoke("persist", nil)
	if err != nil {
		return err
	}
	if len(ret) == 0 || ret[0] == lua.LNil {
		return nil
	}

	s, ok := ret[0].(lua.LString)
	if !ok {
		return &ScriptError{Unit: p.unit.name, Plugin: p.ID(), Op: "persist", Err: fmt.Errorf("returned a %s, want a string", ret[0].Type())}
	}
	_, err = io.WriteString(w, string(s))
	return err
}

func (p *scriptPlugin) preferredOrder() int {
	return p.order
}

func (p *scriptPlugin) contribute(lib *library.Library) (*library.Library, error) {
	out := library.New(lib.Playlists()...)
	_, err := p.invoke("contribute", func(L *lua.LState) []lua.LValue {
		return []lua.LValue{newLibraryValue(L, out)}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *scriptPlugin) onPlaybackStateChange(old, new playback.State) error {
	_, err := p.invoke("on_playback_state_change", func(L *lua.LState) []lua.LValue {
		return []lua.LValue{stateTable(L, old), stateTable(L, new)}
	})
	return err
}

type scriptContributor struct{ *scriptPlugin }

func (p *scriptContributor) PreferredOrder() int { return p.preferredOrder() }

func (p *scriptContributor) Contribute(lib *library.Library) (*library.Library, error) {
	return p.contribute(lib)
}

type scriptListener struct{ *scriptPlugin }

func (p *scriptListener) OnPlaybackStateChange(old, new playback.State) error {
	return p.onPlaybackStateChange(old, new)
}

type scriptContributorListener struct{ *scriptPlugin }

func (p *scriptContributorListener) PreferredOrder() int { return p.preferredOrder() }

func (p *scriptContributorListener) Contribute(lib *library.Library) (*library.Library, error) {
	return p.contribute(lib)
}

func (p *scriptContributorListener) OnPlaybackStateChange(old, new playback.State) error {
	return p.onPlaybackStateChange(old, new)
}

// stateTable converts a playback state to {kind, playlist, index, resumed}.
// Indexes are 1-based.
func stateTable(L *lua.LState, s playback.State) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(s.Kind.String()))
	if s.HasPosition() {
		t.RawSetString("playlist", lua.LString(s.Position.Playlist.Name()))
		t.RawSetString("index", lua.LNumber(s.Position.Index+1))
		t.RawSetString("resumed", lua.LBool(s.Position.Resumed))
	}
	return t
}

// hostTable builds the host API handed to Lua plugins.
func (u *Unit) hostTable(L *lua.LState, h plugin.Host, id string) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(id))
	t.RawSetString("settings", u.bridge.ToLuaValue(h.Settings(id)))

	L.SetFuncs(t, map[string]lua.LGFunction{
		"state": func(L *lua.LState) int {
			L.Push(stateTable(L, h.PlaybackState()))
			return 1
		},
		"stop": func(L *lua.LState) int {
			err := u.state.Escape(func() error {
				return h.SetPlaybackState(playback.Stopped())
			})
			if err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"play": func(L *lua.LState) int {
			name := L.CheckString(1)
			index := L.OptInt(2, 1)

			err := u.state.Escape(func() error {
				lib, err := h.Library()
				if err != nil {
					return err
				}
				pl, ok := lib.Find(name)
				if !ok {
					return fmt.Errorf("no playlist named %q", name)
				}
				return h.SetPlaybackState(playback.Playing(pl, index-1))
			})
			if err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"playlists": func(L *lua.LState) int {
			lib, err := h.Library()
			if err != nil {
				L.RaiseError("%v", err)
				return 0
			}
			L.Push(u.bridge.ToLuaValue(lib.Names()))
			return 1
		},
		"log": func(L *lua.LState) int {
			msg := L.CheckString(1)
			args := []any{"plugin", id}
			if fields, ok := u.bridge.ToGoValue(L.OptTable(2, L.NewTable())).(map[string]any); ok {
				for _, k := range slices.Sorted(maps.Keys(fields)) {
					args = append(args, k, fields[k])
				}
			}
			h.Logger().Info(msg, args...)
			return 0
		},
	})

	return t
}
