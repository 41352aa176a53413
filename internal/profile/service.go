package profile

import (
	"context"
	"fmt"
	"time"
)

// Service provides profile access with synthesized defaults.
type Service struct {
	store  Store
	region string
}

// NewService creates a profile service. region seeds new profiles'
// default phone region.
func NewService(store Store, region string) *Service {
	return &Service{store: store, region: region}
}

// Get returns the user's profile, creating the free-tier default on first
// access.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	if p == nil {
		p = defaultProfile(userID, s.region)
		if err := s.store.Put(ctx, p); err != nil {
			return nil, fmt.Errorf("create profile %s: %w", userID, err)
		}
	}
	return p, nil
}

// Apply merge-patches the profile: only fields the patch carries change.
func (s *Service) Apply(ctx context.Context, userID string, patch Patch) (*Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Tier != nil {
		if *patch.Tier != TierFree && *patch.Tier != TierPremium {
			return nil, fmt.Errorf("profile: invalid tier %q", *patch.Tier)
		}
		p.Tier = *patch.Tier
	}
	if patch.AutoHangupEnabled != nil {
		p.Settings.AutoHangupEnabled = *patch.AutoHangupEnabled
	}
	if patch.DefaultRegion != nil {
		p.Settings.DefaultRegion = *patch.DefaultRegion
	}
	p.UpdatedAt = time.Now()

	if err := s.store.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("patch profile %s: %w", userID, err)
	}
	return p, nil
}

// Unlimited implements the quota tier check: premium users have no caps.
func (s *Service) Unlimited(ctx context.Context, userID string) bool {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return false
	}
	return p.Tier == TierPremium
}

// AppendHistory records a finished call in the user's history.
func (s *Service) AppendHistory(ctx context.Context, userID string, rec CallRecord) error {
	if err := s.store.AppendHistory(ctx, userID, rec); err != nil {
		return fmt.Errorf("append history for %s: %w", userID, err)
	}
	return nil
}

// History lists the most recent call records, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]CallRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	recs, err := s.store.ListHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", userID, err)
	}
	return recs, nil
}
