// Package loader reads configuration sources into generic maps.
//
// A File source decodes TOML or YAML, picked by extension; the Env source
// maps PLAYERCORE_* variables onto setting paths. Layers are combined with
// Merge, later layers winning.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source yields one configuration layer. A source with nothing to offer
// returns a nil map.
type Source interface {
	Load() (map[string]any, error)
}

// ReadFileFunc reads a whole file. os.ReadFile satisfies it.
type ReadFileFunc func(path string) ([]byte, error)

// Format decodes one configuration syntax.
type Format struct {
	Name   string
	decode func(source string, data []byte) (map[string]any, error)
}

// Supported formats.
var (
	TOML = Format{Name: "toml", decode: decodeTOML}
	YAML = Format{Name: "yaml", decode: decodeYAML}
)

// FormatFor picks the format from the extension of path.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return Format{}, fmt.Errorf("unsupported config format %q", ext)
	}
}

// Decode reads r and decodes it. source names the data in errors.
func (f Format) Decode(source string, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return f.decode(source, data)
}

// File is a configuration file. A missing file is an empty layer.
type File struct {
	Path     string
	Format   Format
	ReadFile ReadFileFunc
}

// ForPath returns the file source for path. A nil readFile reads from
// disk.
func ForPath(path string, readFile ReadFileFunc) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if readFile == nil {
		readFile = os.ReadFile
	}
	return &File{Path: path, Format: format, ReadFile: readFile}, nil
}

// Load implements Source.
func (f *File) Load() (map[string]any, error) {
	data, err := f.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", f.Path, err)
	}
	return f.Format.decode(f.Path, data)
}
