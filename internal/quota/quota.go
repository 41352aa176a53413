// Package quota implements per-feature daily usage limits for free-tier users.
//
// Counters reset lazily at the local-date boundary: the first access on a new
// day zeroes everything, and repeat accesses the same day never re-reset.
// CheckLimit never mutates usage beyond that lazy reset.
package quota

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrUnknownFeature = errors.New("quota: unknown feature")
)

// Feature identifies a quota-gated capability.
type Feature string

const (
	FeatureDeepfakeScan Feature = "deepfake_scan"
	FeatureMessageScan  Feature = "message_scan"
	FeatureCallLookup   Feature = "call_lookup"
)

// DateLayout is the calendar-date format stored in LastResetDate.
const DateLayout = "2006-01-02"

// Counters is the per-user daily usage record.
type Counters struct {
	DeepfakeScans int    `json:"deepfakeScans"`
	MessageScans  int    `json:"messageScans"`
	CallLookups   int    `json:"callLookups"`
	LastResetDate string `json:"lastResetDate"` // local calendar date, DateLayout
}

func (c *Counters) count(f Feature) (int, error) {
	switch f {
	case FeatureDeepfakeScan:
		return c.DeepfakeScans, nil
	case FeatureMessageScan:
		return c.MessageScans, nil
	case FeatureCallLookup:
		return c.CallLookups, nil
	default:
		return 0, ErrUnknownFeature
	}
}

func (c *Counters) add(f Feature) error {
	switch f {
	case FeatureDeepfakeScan:
		c.DeepfakeScans++
	case FeatureMessageScan:
		c.MessageScans++
	case FeatureCallLookup:
		c.CallLookups++
	default:
		return ErrUnknownFeature
	}
	return nil
}

// resetIfStale zeroes all counters when the stored date differs from today.
// Idempotent within a day. Returns true when a reset happened.
func (c *Counters) resetIfStale(today string) bool {
	if c.LastResetDate == today {
		return false
	}
	c.DeepfakeScans = 0
	c.MessageScans = 0
	c.CallLookups = 0
	c.LastResetDate = today
	return true
}

// Limits holds the free-tier daily caps per feature.
type Limits struct {
	DeepfakeScans int
	MessageScans  int
	CallLookups   int
}

func (l Limits) cap(f Feature) (int, error) {
	switch f {
	case FeatureDeepfakeScan:
		return l.DeepfakeScans, nil
	case FeatureMessageScan:
		return l.MessageScans, nil
	case FeatureCallLookup:
		return l.CallLookups, nil
	default:
		return 0, ErrUnknownFeature
	}
}

// Clock supplies the current time; injected so day boundaries are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TierProvider reports whether a user is on an unlimited (paid) tier.
type TierProvider interface {
	Unlimited(ctx context.Context, userID string) bool
}

// Store persists usage counters. Update runs fn against the current counters
// for a user and persists the result atomically with respect to other
// updates for the same user.
type Store interface {
	Get(ctx context.Context, userID string) (*Counters, error)
	Update(ctx context.Context, userID string, fn func(*Counters) error) (*Counters, error)
}
