package reputation

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an in-memory reputation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Get(ctx context.Context, number string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[number]
	if !ok {
		return nil, nil
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Put(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Number] = copyRecord(record)
	return nil
}

func copyRecord(rec *Record) *Record {
	out := *rec
	out.Tags = make([]Tag, len(rec.Tags))
	copy(out.Tags, rec.Tags)
	return &out
}
