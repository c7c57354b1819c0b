package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apexai-labs/onyx/internal/domain"
)

// FileStore persists the cache as a single JSON document mapping question
// strings to ordered answer lists, rewritten in full on every save.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the given path. The file is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (map[string][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]string), nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	entries := make(map[string][]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", s.path, err)
	}
	return entries, nil
}

// Save writes the snapshot to a temp file in the same directory and
// renames it over the target, so readers never observe a torn document.
func (s *FileStore) Save(entries map[string][]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return &domain.PersistenceError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.PersistenceError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.PersistenceError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &domain.PersistenceError{Path: s.path, Err: err}
	}
	return nil
}
