// Package cache keeps metadata about downloaded source files in a JSON file,
// so later runs can reuse the copy in the cache directory instead of fetching
// it again.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// DefaultFile is the metadata file name inside a cache directory.
const DefaultFile = "info.json"

// Entry describes one cached download.
type Entry struct {
	File      string    `json:"file"`
	SHA256    string    `json:"sha256"`
	ETag      string    `json:"etag,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store is a key-value map of entries persisted as JSON. It is safe for
// concurrent use; changes reach the disk only on Save.
type Store struct {
	path    string
	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool
}

type document struct {
	Entries map[string]Entry `json:"entries"`
}

// Load reads the store at path. A missing file gives an empty store that will
// be created by the first Save.
func Load(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse cache %s: %w", path, err)
	}
	if doc.Entries != nil {
		s.entries = doc.Entries
	}
	return s, nil
}

// Path returns the file the store is saved to.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *Store) Set(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[key]; ok && old == e {
		return
	}
	s.entries[key] = e
	s.dirty = true
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
		s.dirty = true
	}
}

// Keys returns every key in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.entries))
}

// Save writes the store if it changed since it was loaded. The file is
// replaced atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(document{Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write cache %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache %s: %w", s.path, err)
	}

	s.dirty = false
	return nil
}
