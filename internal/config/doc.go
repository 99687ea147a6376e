// Package config loads the player configuration.
//
// Configuration is merged from three sources, lowest priority first:
//   - built-in defaults
//   - a TOML or YAML file, chosen by extension
//   - PLAYERCORE_* environment variables
//
// Example TOML:
//
//	state_dir = "/var/lib/playercore"
//	log_level = "debug"
//	enabled = ["core.static-playlists", "extras.ads"]
//
//	[[units]]
//	name = "core"
//	kind = "native"
//	catalog = "core"
//	discover = true
//
//	[[units]]
//	name = "scripts"
//	kind = "lua"
//	path = "./plugins/scripts"
//	classes = ["Counter"]
//
//	[plugins."core.static-playlists".playlists]
//	morning = ["/music/a.mp3", "/music/b.mp3"]
//
// Leaving out enabled enables every plugin the units provide; an empty
// list enables none.
package config
