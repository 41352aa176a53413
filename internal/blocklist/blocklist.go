// Package blocklist maintains each user's set of blocked phone numbers.
// Membership is advisory: the platform dialer decides what to do with it.
package blocklist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tmnguyen/scamshield/internal/reputation"
)

// Entry is one blocked number with the time it was blocked.
type Entry struct {
	Number    string    `json:"number"`
	BlockedAt time.Time `json:"blockedAt"`
}

// Store persists blocked-number sets per user.
type Store interface {
	Add(ctx context.Context, userID, number string) error
	Remove(ctx context.Context, userID, number string) error
	Contains(ctx context.Context, userID, number string) (bool, error)
	List(ctx context.Context, userID string) ([]Entry, error)
}

// Service normalizes numbers and delegates to the store.
type Service struct {
	store  Store
	region string
}

// NewService creates a blocklist service.
func NewService(store Store, region string) *Service {
	return &Service{store: store, region: region}
}

func (s *Service) Block(ctx context.Context, userID, rawNumber string) error {
	number, err := reputation.Normalize(rawNumber, s.region)
	if err != nil {
		return err
	}
	if err := s.store.Add(ctx, userID, number); err != nil {
		return fmt.Errorf("block %s: %w", number, err)
	}
	return nil
}

func (s *Service) Unblock(ctx context.Context, userID, rawNumber string) error {
	number, err := reputation.Normalize(rawNumber, s.region)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, userID, number); err != nil {
		return fmt.Errorf("unblock %s: %w", number, err)
	}
	return nil
}

func (s *Service) IsBlocked(ctx context.Context, userID, rawNumber string) (bool, error) {
	number, err := reputation.Normalize(rawNumber, s.region)
	if err != nil {
		return false, err
	}
	return s.store.Contains(ctx, userID, number)
}

func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list blocked numbers: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].BlockedAt.After(entries[j].BlockedAt)
	})
	return entries, nil
}
