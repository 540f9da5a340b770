package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/bulletin/internal/domain/ranking"
)

// MemoryStore keeps records in process memory. It backs development setups
// without Postgres and the service tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[ranking.Collection]map[int64]Record
	closed  bool
}

// NewMemoryStore creates an empty store, optionally seeded.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{records: make(map[ranking.Collection]map[int64]Record, len(ranking.Collections))}
	for _, c := range ranking.Collections {
		s.records[c] = make(map[int64]Record)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put inserts or replaces a record.
func (s *MemoryStore) Put(c ranking.Collection, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[c][r.ID] = r
}

func (s *MemoryStore) TopByViews(_ context.Context, c ranking.Collection, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, ok := s.records[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ranking.ErrUnknownCollection, c)
	}
	all := make([]Record, 0, len(rows))
	for _, r := range rows {
		all = append(all, r)
	}
	return ranking.Rank(all, limit), nil
}

func (s *MemoryStore) IncrementViews(_ context.Context, c ranking.Collection, id int64, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	r, ok := s.records[c][id]
	if !ok {
		return fmt.Errorf("%w: %s/%d", ErrNotFound, c, id)
	}
	r.Views += delta
	s.records[c][id] = r
	return nil
}

func (s *MemoryStore) Count(_ context.Context, c ranking.Collection) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.records[c]), nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed; later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
