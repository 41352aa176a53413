package llm

import (
	"context"
	"sync"
)

// StubClient is a deterministic, no-network Client for tests and CI.
// Responses are served in order; when the queue is empty it returns Err
// (or ErrNoContent if Err is nil and no responses remain).
type StubClient struct {
	mu        sync.Mutex
	responses []string
	Err       error
	calls     []Request
}

// NewStubClient creates a stub that returns the given responses in order.
func NewStubClient(responses ...string) *StubClient {
	return &StubClient{responses: responses}
}

func (s *StubClient) SourceName() string { return "Stub" }

func (s *StubClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)

	if s.Err != nil {
		return "", s.Err
	}
	if len(s.responses) == 0 {
		return "", ErrNoContent
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

// Calls returns a copy of every request seen so far.
func (s *StubClient) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}
