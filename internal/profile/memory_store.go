package profile

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	history  map[string][]CallRecord
}

// NewMemoryStore creates an in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		history:  make(map[string][]CallRecord),
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) Put(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, userID string, rec CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[userID] = append(s.history[userID], rec)
	return nil
}

func (s *MemoryStore) ListHistory(ctx context.Context, userID string, limit int) ([]CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.history[userID]
	// Newest first, up to limit.
	out := make([]CallRecord, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
