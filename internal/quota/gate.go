package quota

import (
	"context"
	"fmt"

	"github.com/tmnguyen/scamshield/internal/metrics"
	"github.com/tmnguyen/scamshield/internal/traces"
)

// Gate decides whether a free-tier user may consume a feature.
type Gate struct {
	store  Store
	limits Limits
	tiers  TierProvider // nil = everyone is free tier
	clock  Clock
}

// NewGate creates a quota gate.
func NewGate(store Store, limits Limits, tiers TierProvider) *Gate {
	return &Gate{store: store, limits: limits, tiers: tiers, clock: SystemClock{}}
}

// WithClock overrides the clock. For tests.
func (g *Gate) WithClock(clock Clock) *Gate {
	g.clock = clock
	return g
}

func (g *Gate) today() string {
	return g.clock.Now().Format(DateLayout)
}

// CheckLimit reports whether the user may consume the feature right now.
// A false result mutates nothing beyond the lazy day-boundary reset; callers
// use it to present the upgrade path.
func (g *Gate) CheckLimit(ctx context.Context, userID string, feature Feature) (bool, error) {
	ctx, span := traces.StartSpan(ctx, "quota.CheckLimit", traces.UserID(userID), traces.Feature(string(feature)))
	defer span.End()

	if _, err := g.limits.cap(feature); err != nil {
		return false, err
	}

	if g.tiers != nil && g.tiers.Unlimited(ctx, userID) {
		return true, nil
	}

	counters, err := g.store.Update(ctx, userID, func(c *Counters) error {
		c.resetIfStale(g.today())
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check limit for %s: %w", userID, err)
	}

	count, err := counters.count(feature)
	if err != nil {
		return false, err
	}
	limit, _ := g.limits.cap(feature)

	if count >= limit {
		metrics.QuotaDeniedTotal.WithLabelValues(string(feature)).Inc()
		return false, nil
	}
	return true, nil
}

// Increment records one consumption of the feature. Call only after the
// gated operation succeeded. Paid tiers are still counted for usage display.
func (g *Gate) Increment(ctx context.Context, userID string, feature Feature) error {
	ctx, span := traces.StartSpan(ctx, "quota.Increment", traces.UserID(userID), traces.Feature(string(feature)))
	defer span.End()

	_, err := g.store.Update(ctx, userID, func(c *Counters) error {
		c.resetIfStale(g.today())
		return c.add(feature)
	})
	if err != nil {
		return fmt.Errorf("increment %s for %s: %w", feature, userID, err)
	}
	return nil
}

// Usage returns the user's current counters after applying the lazy reset.
func (g *Gate) Usage(ctx context.Context, userID string) (*Counters, error) {
	counters, err := g.store.Update(ctx, userID, func(c *Counters) error {
		c.resetIfStale(g.today())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("usage for %s: %w", userID, err)
	}
	return counters, nil
}
