package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// files is an in-memory file set for testing.
type files map[string]string

func (f files) ReadFile(path string) ([]byte, error) {
	s, ok := f[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func loadFile(t *testing.T, fsys files, path string) (map[string]any, error) {
	t.Helper()
	f, err := ForPath(path, fsys.ReadFile)
	if err != nil {
		t.Fatalf("ForPath(%q): %v", path, err)
	}
	return f.Load()
}

func envLookup(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestFile_TOML(t *testing.T) {
	config, err := loadFile(t, files{"/player.toml": `
state_dir = "/var/lib/player"
enabled = ["core.static-playlists", "extras.ads"]

[[units]]
name = "core"
kind = "native"
discover = true

[plugins."extras.ads"]
period = 3
`}, "/player.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config["state_dir"] != "/var/lib/player" {
		t.Errorf("state_dir = %v, want '/var/lib/player'", config["state_dir"])
	}

	units, ok := config["units"].([]any)
	if !ok || len(units) != 1 {
		t.Fatalf("units = %#v, want one table", config["units"])
	}

	plugins, ok := config["plugins"].(map[string]any)
	if !ok {
		t.Fatal("expected plugins to be a map")
	}
	ads, ok := plugins["extras.ads"].(map[string]any)
	if !ok {
		t.Fatalf("plugins = %#v, want a dotted key extras.ads", plugins)
	}
	if ads["period"] != int64(3) {
		t.Errorf("period = %v (%T), want 3", ads["period"], ads["period"])
	}
}

func TestFile_Missing(t *testing.T) {
	config, err := loadFile(t, files{}, "/nonexistent.toml")
	if err != nil {
		t.Fatalf("expected no error for a missing file, got: %v", err)
	}
	if config != nil {
		t.Error("expected a nil layer for a missing file")
	}
}

func TestFile_ReadError(t *testing.T) {
	boom := errors.New("permission denied")
	f, err := ForPath("/player.yaml", func(string) ([]byte, error) { return nil, boom })
	if err != nil {
		t.Fatalf("ForPath: %v", err)
	}
	if _, err := f.Load(); !errors.Is(err, boom) {
		t.Errorf("Load() error = %v, want %v", err, boom)
	}
}

func TestFile_InvalidTOML(t *testing.T) {
	_, err := loadFile(t, files{"/invalid.toml": `
[units
name = "core"
`}, "/invalid.toml")

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if parseErr.Source != "/invalid.toml" {
		t.Errorf("Source = %q, want '/invalid.toml'", parseErr.Source)
	}
	if parseErr.Line == 0 {
		t.Error("expected a line number")
	}
}

func TestFormat_Decode(t *testing.T) {
	config, err := TOML.Decode("inline", strings.NewReader(`log_level = "debug"`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if config["log_level"] != "debug" {
		t.Errorf("log_level = %v, want 'debug'", config["log_level"])
	}

	_, err = YAML.Decode("inline", strings.NewReader("units: [\n"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Source != "inline" {
		t.Errorf("Decode(bad yaml) error = %v, want *ParseError for inline", err)
	}
}

func TestFile_YAML(t *testing.T) {
	config, err := loadFile(t, files{"/player.yaml": `
log_format: json
units:
  - name: scripts
    kind: lua
    path: ./scripts
    classes: [Counter]
plugins:
  extras.ads:
    capacity: 4
`}, "/player.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config["log_format"] != "json" {
		t.Errorf("log_format = %v, want 'json'", config["log_format"])
	}

	units, ok := config["units"].([]any)
	if !ok || len(units) != 1 {
		t.Fatalf("units = %#v, want one entry", config["units"])
	}
	unit, ok := units[0].(map[string]any)
	if !ok {
		t.Fatalf("unit = %T, want a map", units[0])
	}
	if unit["kind"] != "lua" {
		t.Errorf("kind = %v, want 'lua'", unit["kind"])
	}

	plugins, _ := config["plugins"].(map[string]any)
	if _, ok := plugins["extras.ads"].(map[string]any); !ok {
		t.Errorf("plugins = %#v, want extras.ads settings", plugins)
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/a.toml", "toml", false},
		{"/a.TOML", "toml", false},
		{"/a.yaml", "yaml", false},
		{"/a.yml", "yaml", false},
		{"/a.json", "", true},
		{"/a", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := FormatFor(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("FormatFor(%q) succeeded, want error", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatFor(%q): %v", tt.path, err)
			}
			if f.Name != tt.want {
				t.Errorf("FormatFor(%q) = %s, want %s", tt.path, f.Name, tt.want)
			}
		})
	}
}

func TestEnvLoader_Load(t *testing.T) {
	loader := NewEnvLoaderWithLookup(EnvPrefix, envLookup(map[string]string{
		"PLAYERCORE_STATE_DIR":   "/tmp/state",
		"PLAYERCORE_LOG_LEVEL":   "debug",
		"PLAYERCORE_ENABLED":     "core.reporter, extras.ads",
		"PLAYERCORE_LUA_TIMEOUT": "250ms",
		"OTHER_LOG_LEVEL":        "error",
	}))

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config["state_dir"] != "/tmp/state" {
		t.Errorf("state_dir = %v, want '/tmp/state'", config["state_dir"])
	}
	if config["log_level"] != "debug" {
		t.Errorf("log_level = %v, want 'debug'", config["log_level"])
	}

	enabled, ok := config["enabled"].([]any)
	if !ok || len(enabled) != 2 || enabled[0] != "core.reporter" || enabled[1] != "extras.ads" {
		t.Errorf("enabled = %#v, want [core.reporter extras.ads]", config["enabled"])
	}

	lua, ok := config["lua"].(map[string]any)
	if !ok {
		t.Fatal("expected lua to be a map")
	}
	if lua["timeout"] != 250*time.Millisecond {
		t.Errorf("lua.timeout = %v (%T), want 250ms", lua["timeout"], lua["timeout"])
	}
}

func TestEnvLoader_DurationNeedsUnit(t *testing.T) {
	loader := NewEnvLoaderWithLookup(EnvPrefix, envLookup(map[string]string{
		"PLAYERCORE_LUA_TIMEOUT": "5",
	}))

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	lua := config["lua"].(map[string]any)
	if lua["timeout"] != "5" {
		t.Errorf("lua.timeout = %v (%T), want the raw string", lua["timeout"], lua["timeout"])
	}
}

func TestEnvLoader_EmptyList(t *testing.T) {
	loader := NewEnvLoaderWithLookup(EnvPrefix, envLookup(map[string]string{
		"PLAYERCORE_ENABLED": "",
	}))

	config, _ := loader.Load()
	enabled, ok := config["enabled"].([]any)
	if !ok {
		t.Fatalf("enabled = %#v, want an empty list", config["enabled"])
	}
	if len(enabled) != 0 {
		t.Errorf("len(enabled) = %d, want 0", len(enabled))
	}
}

func TestEnvLoader_StringKindKeepsRaw(t *testing.T) {
	loader := NewEnvLoaderWithLookup(EnvPrefix, envLookup(map[string]string{
		"PLAYERCORE_STATE_DIR": "1234",
	}))

	config, _ := loader.Load()
	if config["state_dir"] != "1234" {
		t.Errorf("state_dir = %v (%T), want the string '1234'", config["state_dir"], config["state_dir"])
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	loader := NewEnvLoaderWithLookup(EnvPrefix, envLookup(map[string]string{
		"PLAYERCORE_ADS_PERIOD": "7",
	}))
	loader.AddMapping("ADS_PERIOD", EnvVar{Path: "plugins.ads.period"})

	config, _ := loader.Load()
	plugins, _ := config["plugins"].(map[string]any)
	ads, _ := plugins["ads"].(map[string]any)
	if ads["period"] != int64(7) {
		t.Errorf("plugins.ads.period = %v, want 7", ads["period"])
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"", ""},
		{"true", true},
		{"off", false},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"3s", 3 * time.Second},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseValue(tt.input)
			if got != tt.want {
				t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestParseValue_JSON(t *testing.T) {
	got, ok := parseValue(`{"seed": 7, "names": ["a", "b"]}`).(map[string]any)
	if !ok {
		t.Fatalf("expected a map, got %T", got)
	}
	if got["seed"] != float64(7) {
		t.Errorf("seed = %v, want 7", got["seed"])
	}
	if names, _ := got["names"].([]any); len(names) != 2 {
		t.Errorf("names = %v, want two entries", got["names"])
	}
}

func TestMerge(t *testing.T) {
	defaults := map[string]any{
		"log_level": "info",
		"lua":       map[string]any{"timeout": "5s", "keep": true},
		"units":     []any{"a", "b"},
	}
	file := map[string]any{
		"log_level": "debug",
		"lua":       map[string]any{"timeout": "1s"},
	}
	env := map[string]any{
		"units": []any{"c"},
	}

	got := Merge(defaults, nil, file, env)

	if got["log_level"] != "debug" {
		t.Errorf("log_level = %v, want 'debug'", got["log_level"])
	}
	lua := got["lua"].(map[string]any)
	if lua["timeout"] != "1s" || lua["keep"] != true {
		t.Errorf("lua = %v, want merged table", lua)
	}
	if units := got["units"].([]any); len(units) != 1 || units[0] != "c" {
		t.Errorf("units = %v, want replaced list", units)
	}

	lua["timeout"] = "9s"
	if defaults["lua"].(map[string]any)["timeout"] != "5s" || file["lua"].(map[string]any)["timeout"] != "1s" {
		t.Error("Merge modified or shares its layers")
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{
		"plugins": map[string]any{"ads": map[string]any{"period": 2}},
		"list":    []any{map[string]any{"x": 1}},
	}

	dst := Clone(src)
	dst["plugins"].(map[string]any)["ads"].(map[string]any)["period"] = 9
	dst["list"].([]any)[0].(map[string]any)["x"] = 9

	if src["plugins"].(map[string]any)["ads"].(map[string]any)["period"] != 2 {
		t.Error("Clone shares nested maps")
	}
	if src["list"].([]any)[0].(map[string]any)["x"] != 1 {
		t.Error("Clone shares list elements")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
