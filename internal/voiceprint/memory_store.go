package voiceprint

import (
	"context"
	"sync"
)

// MemoryStore keeps samples in a map. For development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	samples map[string]Sample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{samples: make(map[string]Sample)}
}

func (s *MemoryStore) Put(ctx context.Context, id string, blob []byte, mime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.samples[id] = Sample{ID: id, Blob: cp, Mime: mime}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample, ok := s.samples[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	cp := make([]byte, len(sample.Blob))
	copy(cp, sample.Blob)
	return cp, sample.Mime, nil
}
