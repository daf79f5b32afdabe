package state

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a non-persistent Store for tests and throwaway sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]Record
	closed bool

	// FailPuts makes every PutMany fail with the returned error when set.
	FailPuts func(scope string, records []Record) error
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: map[string]map[string]Record{}}
}

func (s *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (s *MemoryStore) Get(_ context.Context, scope, key string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, false, ErrClosed
	}
	rec, ok := s.data[scope][key]
	if !ok {
		return Record{}, false, nil
	}
	rec.Value = append([]byte(nil), rec.Value...)
	return rec, true, nil
}

func (s *MemoryStore) PutMany(_ context.Context, scope string, records []Record) error {
	if strings.TrimSpace(scope) == "" {
		return ErrEmptyScope
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.FailPuts != nil {
		if err := s.FailPuts(scope, records); err != nil {
			return err
		}
	}
	bucket := s.data[scope]
	if bucket == nil {
		bucket = map[string]Record{}
		s.data[scope] = bucket
	}
	for _, rec := range records {
		if rec.UpdatedTS.IsZero() {
			rec.UpdatedTS = time.Now().UTC()
		}
		rec.Value = append([]byte(nil), rec.Value...)
		bucket[rec.Key] = rec
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, scope string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]string, 0, len(s.data[scope]))
	for k := range s.data[scope] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
