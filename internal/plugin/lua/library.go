package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/playercore/internal/library"
)

const libraryTypeName = "playercore.library"

// registerLibraryType installs the metatable for library values passed to
// contribute. Playlist and track indexes are 1-based.
//
//	lib:count()            number of playlists
//	lib:name(i)            name of playlist i
//	lib:size(i)            number of tracks in playlist i
//	lib:track(i, j)        metadata table of track j in playlist i
//	lib:add(name, refs)    append a playlist of {playlist, track} pairs
func registerLibraryType(L *lua.LState, bridge *Bridge) {
	mt := L.NewTypeMetatable(libraryTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"count": func(L *lua.LState) int {
			L.Push(lua.LNumber(checkLibrary(L).Len()))
			return 1
		},
		"name": func(L *lua.LState) int {
			L.Push(lua.LString(checkPlaylist(L, checkLibrary(L), 2).Name()))
			return 1
		},
		"size": func(L *lua.LState) int {
			L.Push(lua.LNumber(checkPlaylist(L, checkLibrary(L), 2).Len()))
			return 1
		},
		"track": func(L *lua.LState) int {
			pl := checkPlaylist(L, checkLibrary(L), 2)
			j := L.CheckInt(3)
			if !pl.InRange(j - 1) {
				L.ArgError(3, "track index out of range")
			}
			L.Push(bridge.ToLuaValue(pl.Track(j - 1).Metadata()))
			return 1
		},
		"add": func(L *lua.LState) int {
			lib := checkLibrary(L)
			name := L.CheckString(2)
			refs := L.CheckTable(3)

			var tracks []*library.Track
			for i := 1; i <= refs.Len(); i++ {
				ref, ok := refs.RawGetInt(i).(*lua.LTable)
				if !ok {
					L.ArgError(3, "refs must be {playlist, track} pairs")
				}
				p, pok := ref.RawGetInt(1).(lua.LNumber)
				t, tok := ref.RawGetInt(2).(lua.LNumber)
				if !pok || !tok {
					L.ArgError(3, "refs must be {playlist, track} pairs")
				}

				pi, ti := int(p)-1, int(t)-1
				if pi < 0 || pi >= lib.Len() || !lib.Playlist(pi).InRange(ti) {
					L.ArgError(3, "ref out of range")
				}
				tracks = append(tracks, lib.Playlist(pi).Track(ti))
			}

			lib.Add(library.NewPlaylist(name, tracks))
			return 0
		},
	}))
}

// newLibraryValue wraps lib as a Lua library value.
func newLibraryValue(L *lua.LState, lib *library.Library) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = lib
	L.SetMetatable(ud, L.GetTypeMetatable(libraryTypeName))
	return ud
}

func checkLibrary(L *lua.LState) *library.Library {
	ud := L.CheckUserData(1)
	lib, ok := ud.Value.(*library.Library)
	if !ok {
		L.ArgError(1, "library expected")
	}
	return lib
}

func checkPlaylist(L *lua.LState, lib *library.Library, arg int) *library.Playlist {
	i := L.CheckInt(arg)
	if i < 1 || i > lib.Len() {
		L.ArgError(arg, "playlist index out of range")
	}
	return lib.Playlist(i - 1)
}
