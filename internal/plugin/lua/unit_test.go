package lua

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/playercore/internal/library"
	"github.com/dshills/playercore/internal/playback"
	"github.com/dshills/playercore/internal/plugin"
)

type testHost struct {
	lib      *library.Library
	state    playback.State
	settings map[string]any
	sets     int
	log      *bytes.Buffer

	// onSet, when set, runs after every state change, like a playback
	// machine notifying its listeners.
	onSet func(old, new playback.State) error
}

func (h *testHost) Library() (*library.Library, error) {
	if h.lib == nil {
		return nil, plugin.ErrHostNotReady
	}
	return h.lib, nil
}

func (h *testHost) PlaybackState() playback.State { return h.state }

func (h *testHost) SetPlaybackState(s playback.State) error {
	old := h.state
	h.state = s
	h.sets++
	if h.onSet != nil {
		return h.onSet(old, s)
	}
	return nil
}

func (h *testHost) Settings(string) map[string]any { return h.settings }

func (h *testHost) Logger() *slog.Logger {
	if h.log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewJSONHandler(h.log, nil))
}

func newTestLibrary() *library.Library {
	var tracks []*library.Track
	for _, name := range []string{"one", "two", "three"} {
		tracks = append(tracks, library.NewTrack(map[string]string{library.KeyName: name}, nil))
	}
	return library.New(library.NewPlaylist("mix", tracks))
}

const counterScript = `
local Counter = define_plugin("Counter", { id = "counter" })
Counter.__index = Counter

function Counter.new(host)
	return setmetatable({ host = host, count = 0 }, Counter)
end

function Counter:restore(blob)
	self.count = (tonumber(blob) or 0) + 1
end

function Counter:persist()
	return tostring(self.count)
end
`

const statsScript = `
local Stats = define_plugin("Stats", {})
Stats.__index = Stats

function Stats.new()
	return setmetatable({ host = false, seen = 0 }, Stats)
end

function Stats:restore(blob) end
function Stats:persist() return tostring(self.seen) end

function Stats:on_playback_state_change(old, new)
	self.seen = self.seen + 1
	if new.kind == "playing" and new.index == 2 then
		self.host.stop()
	end
end
`

const reverseScript = `
local Reverse = define_plugin("Reverse", { preferred_order = 3, implements = { "Sorter" } })
Reverse.__index = Reverse

function Reverse.new(host)
	return setmetatable({}, Reverse)
end

function Reverse:restore() end
function Reverse:persist() return nil end

function Reverse:contribute(lib)
	for i = 1, lib:count() do
		local refs = {}
		for j = lib:size(i), 1, -1 do
			refs[#refs + 1] = { i, j }
		end
		lib:add(lib:name(i) .. "-reversed", refs)
	end
end
`

func loadUnit(t *testing.T, host plugin.Host, sources ...string) (*plugin.Registry, *Unit) {
	t.Helper()
	u, err := Load("test", sources)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reg, err := plugin.NewLoader([]plugin.LoadUnit{{Unit: u, DiscoverAll: true}}).Load(host)
	if err != nil {
		t.Fatalf("Loader.Load() error = %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg, u
}

func TestUnitClasses(t *testing.T) {
	u, err := Load("test", []string{counterScript, statsScript})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer u.Close()

	got := u.Classes()
	if len(got) != 2 || got[0] != "Counter" || got[1] != "Stats" {
		t.Errorf("Classes() = %v", got)
	}

	desc, f, err := u.Resolve("Counter")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if desc.ID != "counter" {
		t.Errorf("ID = %q, want counter", desc.ID)
	}
	if f.Shape() != plugin.ShapeHost {
		t.Errorf("Counter shape = %v", f.Shape())
	}

	_, f, _ = u.Resolve("Stats")
	if f.Shape() != plugin.ShapeNoArg {
		t.Errorf("Stats shape = %v", f.Shape())
	}

	if _, _, err := u.Resolve("Missing"); !errors.Is(err, plugin.ErrClassNotFound) {
		t.Errorf("Resolve(Missing) error = %v", err)
	}
}

func TestUnitPersistRoundTrip(t *testing.T) {
	reg, _ := loadUnit(t, &testHost{}, counterScript)

	p, ok := reg.Get("counter")
	if !ok {
		t.Fatal("counter not loaded")
	}

	var blob bytes.Buffer
	blob.WriteString("4")
	if err := p.Restore(&blob); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	var out bytes.Buffer
	if err := p.Persist(&out); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if out.String() != "5" {
		t.Errorf("Persist() = %q, want 5", out.String())
	}
}

const loggerScript = `
local Logger = define_plugin("Logger", { id = "logger" })
Logger.__index = Logger

function Logger.new(host)
	return setmetatable({ host = host }, Logger)
end

function Logger:restore(blob)
	self.host.log("restored", { runs = 3, tags = { "a", "b" }, first = blob == nil })
	self.host.log("plain")
end

function Logger:persist() return nil end
`

func TestUnitLogFields(t *testing.T) {
	var buf bytes.Buffer
	reg, _ := loadUnit(t, &testHost{log: &buf}, loggerScript)

	p, ok := reg.Get("logger")
	if !ok {
		t.Fatal("logger not loaded")
	}
	if err := p.Restore(nil); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %s", len(lines), buf.String())
	}
	for _, want := range []string{`"msg":"restored"`, `"plugin":"logger"`, `"first":true`, `"runs":3`, `"tags":["a","b"]`} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("log line %s missing %s", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], `"msg":"plain"`) || strings.Contains(lines[1], "runs") {
		t.Errorf("plain log line = %s", lines[1])
	}
}

func TestUnitNoArgListenerReentry(t *testing.T) {
	host := &testHost{lib: newTestLibrary()}
	reg, _ := loadUnit(t, host, statsScript)

	listeners := reg.Listeners()
	if len(listeners) != 1 {
		t.Fatalf("Listeners() len = %d, want 1", len(listeners))
	}
	stats := listeners[0]
	if err := stats.Restore(nil); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	// The host notifies the listener of every change, including the stop
	// the listener itself requests.
	host.onSet = stats.OnPlaybackStateChange

	pl, _ := host.lib.Find("mix")
	if err := host.SetPlaybackState(playback.Playing(pl, 1)); err != nil {
		t.Fatalf("SetPlaybackState() error = %v", err)
	}

	if !host.state.IsStopped() {
		t.Errorf("state = %v, want stopped", host.state)
	}
	if host.sets != 2 {
		t.Errorf("sets = %d, want 2", host.sets)
	}

	var out bytes.Buffer
	if err := stats.Persist(&out); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if out.String() != "2" {
		t.Errorf("seen = %s, want 2", out.String())
	}
}

func TestUnitContributor(t *testing.T) {
	reg, _ := loadUnit(t, &testHost{}, reverseScript)

	contribs := reg.Contributors()
	if len(contribs) != 1 {
		t.Fatalf("Contributors() len = %d, want 1", len(contribs))
	}
	c := contribs[0]
	if c.PreferredOrder() != 3 {
		t.Errorf("PreferredOrder() = %d, want 3", c.PreferredOrder())
	}
	if p, ok := reg.FindSingle("Sorter"); !ok || p.ID() != "Reverse" {
		t.Errorf("FindSingle(Sorter) = %v, %v", p, ok)
	}

	in := newTestLibrary()
	out, err := c.Contribute(in)
	if err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}
	if in.Len() != 1 {
		t.Errorf("input library modified: %d playlists", in.Len())
	}

	rev, ok := out.Find("mix-reversed")
	if !ok {
		t.Fatalf("names = %v", out.Names())
	}
	mix, _ := out.Find("mix")
	if rev.Track(0) != mix.Track(2) {
		t.Error("reversed playlist should share track instances")
	}
}

func TestUnitContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		script string
		reason string
	}{
		{
			name:   "two parameters",
			script: `local C = define_plugin("C", {}); function C.new(a, b) return {} end`,
			reason: "2 parameters",
		},
		{
			name:   "no new",
			script: `define_plugin("C", {})`,
			reason: "no Lua new function",
		},
		{
			name: "no host slot",
			script: `local C = define_plugin("C", {})
function C.new() return { restore = function() end, persist = function() end } end`,
			reason: "host slot",
		},
		{
			name:   "missing persist",
			script: `local C = define_plugin("C", {}); function C.new(host) return { restore = function() end } end`,
			reason: "no persist method",
		},
		{
			name:   "not a table",
			script: `local C = define_plugin("C", {}); function C.new(host) return 42 end`,
			reason: "want a table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Load("test", []string{tt.script})
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			_, err = plugin.NewLoader([]plugin.LoadUnit{{Unit: u, DiscoverAll: true}}).Load(&testHost{})
			var ce *plugin.ContractError
			if !errors.As(err, &ce) {
				t.Fatalf("Load() error = %v, want ContractError", err)
			}
			if ce.Class != "C" || !strings.Contains(ce.Reason, tt.reason) {
				t.Errorf("ContractError = %v", ce)
			}
			if !u.state.IsClosed() {
				t.Error("unit should be closed after a failed load")
			}
		})
	}
}

func TestUnitScriptErrors(t *testing.T) {
	if _, err := Load("bad", []string{"this is not lua"}); err == nil {
		t.Error("Load() should fail on a syntax error")
	}

	_, err := Load("dup", []string{`define_plugin("A", {})`, `define_plugin("A", {})`})
	var se *ScriptError
	if !errors.As(err, &se) || !strings.Contains(se.Error(), "already registered") {
		t.Errorf("Load() error = %v, want duplicate class", err)
	}
}

func TestUnitIsolation(t *testing.T) {
	src := `
Shared = (Shared or 0) + 1
local C = define_plugin("C", { id = ID })
C.__index = C
function C.new(host) return setmetatable({}, C) end
function C:restore() end
function C:persist() return tostring(Shared) end
`
	a, err := Load("a", []string{`ID = "from-a"`, src})
	if err != nil {
		t.Fatalf("Load(a) error = %v", err)
	}
	b, err := Load("b", []string{`ID = "from-b"`, src})
	if err != nil {
		t.Fatalf("Load(b) error = %v", err)
	}

	reg, err := plugin.NewLoader([]plugin.LoadUnit{
		{Unit: a, DiscoverAll: true},
		{Unit: b, DiscoverAll: true},
	}).Load(&testHost{})
	if err != nil {
		t.Fatalf("Loader.Load() error = %v", err)
	}
	defer reg.Close()

	for _, id := range []string{"from-a", "from-b"} {
		p, ok := reg.Get(id)
		if !ok {
			t.Fatalf("%s not loaded", id)
		}
		var out bytes.Buffer
		if err := p.Persist(&out); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}
		if out.String() != "1" {
			t.Errorf("%s sees Shared = %s, want 1", id, out.String())
		}
	}
}

func TestSandboxRemovesLoaders(t *testing.T) {
	s := NewState()
	defer s.Close()

	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		err := s.DoString(fn + `("x")`)
		if err == nil {
			t.Errorf("%s should not be callable", fn)
		}
	}
	if err := s.DoString(`return os.time()`); err == nil {
		t.Error("os should not be available without the clock capability")
	}

	clock := NewState(WithCapabilities(CapabilityClock))
	defer clock.Close()
	if err := clock.DoString(`math.randomseed(os.time())`); err != nil {
		t.Errorf("clock capability: %v", err)
	}
}

func TestExecutionTimeout(t *testing.T) {
	s := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer s.Close()

	err := s.DoString(`while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("DoString() error = %v, want ErrExecutionTimeout", err)
	}
}

func TestOpenDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "counters")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("b.lua", statsScript)
	write("a.lua", counterScript)
	write("unit.yaml", "name: counters\nscripts: [a.lua, b.lua]\ncapabilities: [clock]\n")

	u, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer u.Close()

	if u.Name() != "counters" {
		t.Errorf("Name() = %q", u.Name())
	}
	if got := u.Classes(); len(got) != 2 {
		t.Errorf("Classes() = %v", got)
	}
	if !u.state.Sandbox().HasCapability(CapabilityClock) {
		t.Error("clock capability not granted")
	}
}

func TestManifestDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plain")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"z.lua", "a.lua", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Name != "plain" {
		t.Errorf("Name = %q, want plain", m.Name)
	}
	if len(m.Scripts) != 2 || m.Scripts[0] != "a.lua" || m.Scripts[1] != "z.lua" {
		t.Errorf("Scripts = %v", m.Scripts)
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
		want error
	}{
		{"bad name", Manifest{Name: "-x"}, ErrInvalidName},
		{"escaping script", Manifest{Name: "x", Scripts: []string{"../x.lua"}}, ErrInvalidScript},
		{"not lua", Manifest{Name: "x", Scripts: []string{"x.py"}}, ErrInvalidScript},
		{"capability", Manifest{Name: "x", Capabilities: []Capability{"network"}}, ErrInvalidCapability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}
