// Package plugin provides the plugin host for the player.
//
// Plugins are provided by load units. A unit is an isolated symbol table of
// plugin classes: a native Catalog built by a Go package, or a Lua unit
// (package plugin/lua). Two units never share class definitions.
//
// # Contract
//
// Every plugin implements Plugin: a stable id plus Restore and Persist of
// its state. Two optional capabilities extend it:
//   - LibraryContributor takes part in building the aggregate library
//   - PlaybackListener is notified of every playback state transition
//
// # Construction
//
// A class is constructed through a Factory with one of two shapes:
//
//	plugin.WithHost(func(h plugin.Host) (plugin.Plugin, error) { ... })
//	plugin.NoArg(func() (plugin.Plugin, error) { ... })
//
// The no-arg shape requires the plugin to embed Base, through which the
// host assigns the id and host back-reference after construction.
//
// # Loading
//
//	loader := plugin.NewLoader(units, plugin.WithEnabled("core.StaticPlaylists"))
//	reg, err := loader.Load(host)
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//
// Loading is fail-fast: a missing class, a contract violation or a duplicate
// id aborts the whole load. The loader never restores or persists plugins.
//
// # Lookup
//
// The Registry iterates in load order. FindSingle resolves one plugin by
// class name or declared supertype; an exact class match wins over other
// assignable plugins.
package plugin
