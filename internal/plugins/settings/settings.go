// Package settings reads typed values from a plugin's settings table.
//
// Settings arrive as generic maps decoded from TOML, YAML, JSON or Lua, so
// the same logical number may be an int, an int64 or a float64.
package settings

import (
	"math/rand/v2"
	"sort"
)

// Int returns the integer at key, or def when absent or not a number.
func Int(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// String returns the string at key, or def.
func String(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return def
}

// Strings returns the string list at key. Non-string items are skipped.
func Strings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Table returns the nested table at key.
func Table(m map[string]any, key string) map[string]any {
	t, _ := m[key].(map[string]any)
	return t
}

// Keys returns the keys of m in sorted order.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Rand returns a generator seeded from the "seed" setting, or a randomly
// seeded one when no seed is configured.
func Rand(m map[string]any) *rand.Rand {
	if _, ok := m["seed"]; ok {
		seed := uint64(Int(m, "seed", 0))
		return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
