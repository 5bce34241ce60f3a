// Package memory keeps table snapshots in process memory. It backs tests
// and throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"awardbook/internal/records"
)

// Store is a concurrency-safe map of file name to contents.
type Store struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{files: make(map[string][]byte)}
}

func (s *Store) Location() string { return "memory" }

func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[name]
	return ok, nil
}

func (s *Store) Read(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", name, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Write(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
	return nil
}

// WriteAll replaces several files under one lock.
func (s *Store) WriteAll(_ context.Context, files []records.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		s.files[f.Name] = append([]byte(nil), f.Data...)
	}
	return nil
}

// Names lists the stored file names in order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for name := range s.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
