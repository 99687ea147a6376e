package lua

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional per-unit manifest.
const ManifestFile = "unit.yaml"

// Manifest describes a Lua unit directory.
type Manifest struct {
	Name         string       `yaml:"name"`         // Unit name; defaults to the directory name
	Scripts      []string     `yaml:"scripts"`      // Scripts to run, in order; defaults to every *.lua file
	Capabilities []Capability `yaml:"capabilities"` // Sandbox capabilities to grant

	// Internal: path to the unit directory
	path string
}

// Validation errors.
var (
	ErrInvalidName       = errors.New("manifest: name must be alphanumeric with dots, dashes or underscores")
	ErrInvalidScript     = errors.New("manifest: script must be a .lua file inside the unit")
	ErrInvalidCapability = errors.New("manifest: invalid capability")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var validCapabilities = map[Capability]bool{
	CapabilityClock:  true,
	CapabilityUnsafe: true,
}

// LoadManifest reads the manifest of the unit in dir. A missing unit.yaml
// yields the defaults.
func LoadManifest(dir string) (*Manifest, error) {
	m := &Manifest{path: dir}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read manifest: %w", err)
	default:
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
		}
	}

	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}
	if len(m.Scripts) == 0 {
		scripts, err := discoverScripts(dir)
		if err != nil {
			return nil, err
		}
		m.Scripts = scripts
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// discoverScripts lists the *.lua files in dir in lexical order.
func discoverScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read unit directory: %w", err)
	}

	var scripts []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			scripts = append(scripts, e.Name())
		}
	}
	sort.Strings(scripts)
	return scripts, nil
}

// Validate checks the manifest.
func (m *Manifest) Validate() error {
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, m.Name)
	}
	for _, s := range m.Scripts {
		if !strings.HasSuffix(s, ".lua") || !filepath.IsLocal(s) {
			return fmt.Errorf("%w: %q", ErrInvalidScript, s)
		}
	}
	for _, c := range m.Capabilities {
		if !validCapabilities[c] {
			return fmt.Errorf("%w: %q", ErrInvalidCapability, c)
		}
	}
	return nil
}

// Dir returns the unit directory.
func (m *Manifest) Dir() string {
	return m.path
}

// ScriptPaths returns the absolute script paths in run order.
func (m *Manifest) ScriptPaths() []string {
	paths := make([]string, len(m.Scripts))
	for i, s := range m.Scripts {
		paths[i] = filepath.Join(m.path, s)
	}
	return paths
}
