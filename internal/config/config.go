package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dshills/playercore/internal/config/loader"
)

// UnitKind identifies how a load unit is provided.
type UnitKind string

// Unit kinds.
const (
	UnitNative UnitKind = "native" // a compiled-in plugin catalog
	UnitLua    UnitKind = "lua"    // a directory of Lua scripts
)

// Unit configures one load unit.
type Unit struct {
	Name     string
	Kind     UnitKind
	Catalog  string   // native: catalog name
	Path     string   // lua: unit directory
	Classes  []string // classes to load, in order
	Discover bool     // load every class the unit provides
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Config provides typed access to the merged configuration.
type Config struct {
	mu   sync.RWMutex
	data map[string]any
	path string
}

type options struct {
	readFile loader.ReadFileFunc
	lookup   func(string) (string, bool)
	noEnv    bool
}

// Option configures loading.
type Option func(*options)

// WithReadFile reads the configuration file through fn.
func WithReadFile(fn loader.ReadFileFunc) Option {
	return func(o *options) {
		o.readFile = fn
	}
}

// WithEnvLookup reads environment variables through lookup.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithoutEnv skips the environment overlay.
func WithoutEnv() Option {
	return func(o *options) {
		o.noEnv = true
	}
}

// Load merges the defaults, the file at path (if any) and the environment,
// then validates the result. An empty path or a missing file yields the
// defaults.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	var sources []loader.Source
	if path != "" {
		file, err := loader.ForPath(path, o.readFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, file)
	}
	if !o.noEnv {
		sources = append(sources, loader.NewEnvLoaderWithLookup(loader.EnvPrefix, o.lookup))
	}

	layers := []map[string]any{defaultConfig()}
	for _, src := range sources {
		layer, err := src.Load()
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}

	c := &Config{data: loader.Merge(layers...), path: path}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{data: defaultConfig()}
}

// FromMap builds a configuration from data merged over the defaults.
func FromMap(data map[string]any) *Config {
	return &Config{data: loader.Merge(defaultConfig(), data)}
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Get returns the value at the given path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.data, path)
}

// Set sets a value at the given path.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setPath(c.data, path, value)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetStringSlice returns a string slice at the given path.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	return toStrings(path, v)
}

// GetDuration returns a duration given as a string ("2s") or a
// time.Duration at the given path.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return d, nil
	default:
		return 0, &TypeError{Path: path, Expected: `duration with a unit (e.g. "5s")`, Actual: typeName(v)}
	}
}

// StateDir returns the root directory for persisted plugin state.
func (c *Config) StateDir() string {
	s, _ := c.GetString("state_dir")
	return s
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	s, _ := c.GetString("log_level")
	return s
}

// LogFormat returns the configured log format.
func (c *Config) LogFormat() string {
	s, _ := c.GetString("log_format")
	return s
}

// LuaTimeout returns the execution timeout for Lua units.
func (c *Config) LuaTimeout() time.Duration {
	d, _ := c.GetDuration("lua.timeout")
	return d
}

// Enabled returns the enabled plugin ids. ok is false when the setting is
// absent, meaning every provided plugin is enabled.
func (c *Config) Enabled() (ids []string, ok bool) {
	ids, err := c.GetStringSlice("enabled")
	if err != nil {
		return nil, false
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, true
}

// Units returns the configured load units in order.
func (c *Config) Units() ([]Unit, error) {
	v, ok := c.Get("units")
	if !ok {
		return nil, nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil, &TypeError{Path: "units", Expected: "array of tables", Actual: typeName(v)}
	}

	units := make([]Unit, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &TypeError{Path: fmt.Sprintf("units[%d]", i), Expected: "table", Actual: typeName(item)}
		}
		u, err := decodeUnit(i, m)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func decodeUnit(i int, m map[string]any) (Unit, error) {
	at := func(key string) string { return fmt.Sprintf("units[%d].%s", i, key) }

	var u Unit
	str := func(key string) (string, error) {
		v, ok := m[key]
		if !ok {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return "", &TypeError{Path: at(key), Expected: "string", Actual: typeName(v)}
		}
		return s, nil
	}

	var err error
	if u.Name, err = str("name"); err != nil {
		return u, err
	}
	kind, err := str("kind")
	if err != nil {
		return u, err
	}
	u.Kind = UnitKind(kind)
	if u.Catalog, err = str("catalog"); err != nil {
		return u, err
	}
	if u.Path, err = str("path"); err != nil {
		return u, err
	}
	if v, ok := m["classes"]; ok {
		if u.Classes, err = toStrings(at("classes"), v); err != nil {
			return u, err
		}
	}
	if v, ok := m["discover"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return u, &TypeError{Path: at("discover"), Expected: "bool", Actual: typeName(v)}
		}
		u.Discover = b
	}

	if u.Kind == UnitNative && u.Catalog == "" {
		u.Catalog = u.Name
	}
	if u.Kind == UnitLua && u.Name == "" && u.Path != "" {
		u.Name = filepath.Base(u.Path)
	}
	return u, nil
}

// PluginSettings returns the settings table of a plugin, or nil. Plugin
// ids may contain dots, so the id is a single key under "plugins".
func (c *Config) PluginSettings(id string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	plugins, ok := c.data["plugins"].(map[string]any)
	if !ok {
		return nil
	}
	settings, ok := plugins[id].(map[string]any)
	if !ok {
		return nil
	}
	return loader.Clone(settings)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.StateDir() == "" {
		return invalid("state_dir must be set")
	}
	if level := strings.ToLower(c.LogLevel()); !slices.Contains(validLogLevels, level) {
		return invalid("log_level %q: want one of %s", c.LogLevel(), strings.Join(validLogLevels, ", "))
	}
	if format := c.LogFormat(); !slices.Contains(validLogFormats, format) {
		return invalid("log_format %q: want one of %s", format, strings.Join(validLogFormats, ", "))
	}
	if _, ok := c.Get("lua.timeout"); ok {
		if _, err := c.GetDuration("lua.timeout"); err != nil {
			return invalid("lua.timeout: %v", err)
		}
	}
	if v, ok := c.Get("enabled"); ok {
		if _, err := toStrings("enabled", v); err != nil {
			return invalid("%v", err)
		}
	}

	units, err := c.Units()
	if err != nil {
		return invalid("%v", err)
	}

	seen := make(map[string]bool, len(units))
	for i, u := range units {
		if u.Name == "" {
			return invalid("units[%d]: name required", i)
		}
		if seen[u.Name] {
			return invalid("units[%d]: duplicate unit name %q", i, u.Name)
		}
		seen[u.Name] = true

		switch u.Kind {
		case UnitNative:
		case UnitLua:
			if u.Path == "" {
				return invalid("unit %q: lua units need a path", u.Name)
			}
		default:
			return invalid("unit %q: kind %q: want native or lua", u.Name, u.Kind)
		}

		if !u.Discover && len(u.Classes) == 0 {
			return invalid("unit %q: set classes or discover", u.Name)
		}
	}
	return nil
}

// defaultUserStateDir returns the default state directory.
func defaultUserStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "playercore", "state")
	}
	return filepath.Join(".playercore", "state")
}

// defaultConfig returns the built-in configuration: every core plugin and
// the non-reordering extras.
func defaultConfig() map[string]any {
	return map[string]any{
		"state_dir":  defaultUserStateDir(),
		"log_level":  "info",
		"log_format": "text",
		"lua": map[string]any{
			"timeout": "5s",
		},
		"units": []any{
			map[string]any{"name": "core", "kind": "native", "catalog": "core", "discover": true},
			map[string]any{"name": "extras", "kind": "native", "catalog": "extras", "classes": []any{"Ads", "UsageStats"}},
		},
	}
}

func toStrings(path string, v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = cm[part]; !ok {
			return nil, false
		}
	}

	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return ErrInvalidPath
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path into parts.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
