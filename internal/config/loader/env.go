package loader

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// EnvPrefix is the prefix of every recognized environment variable.
const EnvPrefix = "PLAYERCORE_"

// ValueKind selects how an environment value is parsed.
type ValueKind int

// Value kinds.
const (
	// KindAuto guesses bool, number, duration or JSON, else string.
	KindAuto ValueKind = iota
	// KindString keeps the raw value.
	KindString
	// KindList splits on commas; an empty value is an empty list.
	KindList
	// KindDuration parses a duration with a unit ("5s"). Anything else is
	// kept raw so validation can report it.
	KindDuration
)

// EnvVar maps one environment variable onto a setting path.
type EnvVar struct {
	Path string
	Kind ValueKind
}

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "PLAYERCORE_")
	mapping map[string]EnvVar // Env var name without prefix -> setting
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "PLAYERCORE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		lookup:  os.LookupEnv,
	}
}

// NewEnvLoaderWithLookup creates a loader reading variables through lookup
// instead of the process environment.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.lookup = lookup
	return l
}

// defaultEnvMapping returns the default environment variable mappings.
func defaultEnvMapping() map[string]EnvVar {
	return map[string]EnvVar{
		"STATE_DIR":   {Path: "state_dir", Kind: KindString},
		"LOG_LEVEL":   {Path: "log_level", Kind: KindString},
		"LOG_FORMAT":  {Path: "log_format", Kind: KindString},
		"ENABLED":     {Path: "enabled", Kind: KindList},
		"LUA_TIMEOUT": {Path: "lua.timeout", Kind: KindDuration},
	}
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for name, v := range l.mapping {
		val, ok := l.lookup(l.prefix + name)
		if !ok {
			continue
		}
		setByPath(config, v.Path, parseKind(v.Kind, val))
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping. name excludes
// the prefix.
func (l *EnvLoader) AddMapping(name string, v EnvVar) {
	if l.mapping == nil {
		l.mapping = make(map[string]EnvVar)
	}
	l.mapping[name] = v
}

func parseKind(kind ValueKind, s string) any {
	switch kind {
	case KindString:
		return s
	case KindList:
		list := []any{}
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		return list
	case KindDuration:
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
		return s
	default:
		return parseValue(s)
	}
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)
	if lower == "true" || lower == "yes" || lower == "on" {
		return true
	}
	if lower == "false" || lower == "no" || lower == "off" {
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only if it contains a decimal point to avoid misinterpreting ints
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if (strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")) && gjson.Valid(s) {
		return gjson.Parse(s).Value()
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}
