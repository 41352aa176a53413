package blocklist

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	blocked map[string]map[string]time.Time // userID → number → blocked-at
}

// NewMemoryStore creates an in-memory blocklist store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocked: make(map[string]map[string]time.Time)}
}

func (s *MemoryStore) Add(ctx context.Context, userID, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.blocked[userID]
	if !ok {
		set = make(map[string]time.Time)
		s.blocked[userID] = set
	}
	if _, exists := set[number]; !exists {
		set[number] = time.Now()
	}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, userID, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.blocked[userID]; ok {
		delete(set, number)
	}
	return nil
}

func (s *MemoryStore) Contains(ctx context.Context, userID, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.blocked[userID]
	if !ok {
		return false, nil
	}
	_, exists := set[number]
	return exists, nil
}

func (s *MemoryStore) List(ctx context.Context, userID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.blocked[userID]
	entries := make([]Entry, 0, len(set))
	for number, at := range set {
		entries = append(entries, Entry{Number: number, BlockedAt: at})
	}
	return entries, nil
}
