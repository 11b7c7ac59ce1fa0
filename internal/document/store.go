package document

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Store opens documents from a filesystem and keeps them open until
// closed, so callers editing the same path share one buffer.
type Store struct {
	fs afero.Fs

	mu   sync.Mutex
	open map[string]*Document
}

// NewStore creates a store over fs. A nil fs uses the OS filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, open: make(map[string]*Document)}
}

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// Open returns the open document for path, reading it on first use.
func (s *Store) Open(path string) (*Document, error) {
	path = filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.open[path]; ok {
		return d, nil
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}

	d := New(path, string(data))
	s.open[path] = d
	return d, nil
}

// Save writes a dirty document back to the filesystem.
func (s *Store) Save(d *Document) error {
	if !d.dirty {
		return nil
	}

	mode := defaultMode
	if info, err := s.fs.Stat(d.uri); err == nil {
		mode = info.Mode().Perm()
	}

	if err := afero.WriteFile(s.fs, d.uri, []byte(d.text), mode); err != nil {
		return fmt.Errorf("save document %s: %w", d.uri, err)
	}
	d.dirty = false
	return nil
}

// Close drops the open buffer for path, discarding unsaved changes.
func (s *Store) Close(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, filepath.Clean(path))
}

const defaultMode fs.FileMode = 0o644
