// Package lua provides Lua load units for the plugin system.
//
// A unit is a directory of scripts run in one sandboxed gopher-lua state.
// Scripts declare plugin classes with define_plugin:
//
//	local Counter = define_plugin("Counter", { id = "counter" })
//	Counter.__index = Counter
//
//	function Counter.new(host)
//	    return setmetatable({ host = host, count = 0 }, Counter)
//	end
//
//	function Counter:restore(blob)
//	    self.count = (tonumber(blob) or 0) + 1
//	end
//
//	function Counter:persist()
//	    return tostring(self.count)
//	end
//
// The declaration table may carry id, preferred_order and implements.
//
// # Construction
//
// A new function with one parameter receives the host table. A new function
// with no parameters must return an instance declaring a host slot
// (host = false), which the host fills in after loading. Any other shape is
// a contract violation.
//
// # Capabilities
//
// An instance with a contribute method is a library contributor; one with
// on_playback_state_change is a playback listener.
//
// # Host table
//
//	host.id                  plugin id
//	host.settings            plugin settings from the configuration
//	host.state()             current playback state
//	host.stop()              stop playback
//	host.play(name, index)   play a playlist from a 1-based index
//	host.playlists()         names of the aggregate library's playlists
//	host.log(msg)            log through the host logger
//
// # Manifest
//
// An optional unit.yaml names the unit, orders its scripts and grants
// sandbox capabilities:
//
//	name: ads
//	scripts: [ads.lua]
//	capabilities: [clock]
package lua
