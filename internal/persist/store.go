// Package persist stores one opaque state blob per plugin id.
package persist

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// BlobName is the file name of a plugin's blob inside its directory.
const BlobName = "state.dat"

// ErrInvalidID is returned for an id that cannot name a blob.
var ErrInvalidID = errors.New("invalid plugin id")

// Blob describes one stored blob.
type Blob struct {
	ID      string
	Size    int64
	ModTime time.Time
}

// Store maps plugin ids to blobs at <root>/<escaped id>/state.dat.
type Store struct {
	root string
}

// NewStore creates a store rooted at root. The directory is created on the
// first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store root.
func (s *Store) Root() string {
	return s.root
}

// escapeID turns an id into a single path element. Separators and dot
// segments are escaped so an id can never leave its directory.
func escapeID(id string) (string, error) {
	if id == "" {
		return "", ErrInvalidID
	}
	esc := url.PathEscape(id)
	if strings.Trim(esc, ".") == "" {
		esc = strings.ReplaceAll(esc, ".", "%2E")
	}
	return esc, nil
}

// Path returns the blob path of id.
func (s *Store) Path(id string) (string, error) {
	esc, err := escapeID(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, esc, BlobName), nil
}

// Open returns the blob of id, or nil with no error when none exists.
func (s *Store) Open(id string) (io.ReadCloser, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open blob %q: %w", id, err)
	}
	return f, nil
}

// Write replaces the blob of id with whatever fn writes. The blob is
// buffered and written atomically, so a failing fn leaves the previous
// blob in place. Write returns the number of bytes stored.
func (s *Store) Write(id string, fn func(w io.Writer) error) (int, error) {
	path, err := s.Path(id)
	if err != nil {
		return 0, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := fn(buf); err != nil {
		return 0, err
	}
	if err := writeAtomic(path, buf.B); err != nil {
		return 0, fmt.Errorf("write blob %q: %w", id, err)
	}
	return buf.Len(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, BlobName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the blob of id. Deleting a missing blob is not an error.
func (s *Store) Delete(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Dir(path)); err != nil {
		return fmt.Errorf("delete blob %q: %w", id, err)
	}
	return nil
}

// List returns every stored blob sorted by id.
func (s *Store) List() ([]Blob, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	var blobs []Blob
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		info, err := os.Stat(filepath.Join(s.root, e.Name(), BlobName))
		if err != nil {
			continue
		}
		blobs = append(blobs, Blob{ID: id, Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(blobs, func(i, j int) bool { return blobs[i].ID < blobs[j].ID })
	return blobs, nil
}

// Wipe deletes every stored blob and returns how many were removed. Files
// in the root that are not plugin directories are left alone.
func (s *Store) Wipe() (int, error) {
	blobs, err := s.List()
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, b := range blobs {
		if err := s.Delete(b.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
