package quota

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
// Updates for one user are serialized under a single lock, so a
// check-then-increment pair never interleaves with another feature's.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*Counters
}

// NewMemoryStore creates an in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*Counters)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[userID]
	if !ok {
		return &Counters{}, nil
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, userID string, fn func(*Counters) error) (*Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[userID]
	if !ok {
		c = &Counters{}
		s.counters[userID] = c
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	out := *c
	return &out, nil
}
