package reputation

import (
	"context"
	"fmt"
	"time"

	"github.com/tmnguyen/scamshield/internal/logging"
	"github.com/tmnguyen/scamshield/internal/metrics"
	"github.com/tmnguyen/scamshield/internal/traces"
)

// Service provides reputation lookup and report submission.
type Service struct {
	store  Store
	region string
}

// NewService creates a reputation service. region is the default country
// for phone number normalization (ISO 3166-1 alpha-2).
func NewService(store Store, region string) *Service {
	return &Service{store: store, region: region}
}

// Lookup returns the reputation record for a number. Unknown numbers get a
// synthesized neutral record — lookup never reports "not found".
func (s *Service) Lookup(ctx context.Context, rawNumber string) (*Record, error) {
	number, err := Normalize(rawNumber, s.region)
	if err != nil {
		return nil, err
	}

	ctx, span := traces.StartSpan(ctx, "reputation.Lookup", traces.PhoneNumber(number))
	defer span.End()

	rec, err := s.store.Get(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", number, err)
	}
	if rec == nil {
		metrics.ReputationLookupsTotal.WithLabelValues("unknown").Inc()
		return defaultRecord(number), nil
	}

	metrics.ReputationLookupsTotal.WithLabelValues("known").Inc()
	return rec, nil
}

// Report replaces the record for a number with a fresh one derived from a
// single community report. Safe reports score 100, everything else 10.
//
// This overwrite is intentional product behavior (one report = current
// truth); it does not accumulate counts across reporters.
func (s *Service) Report(ctx context.Context, rawNumber string, category ReportCategory, label string) (*Record, error) {
	number, err := Normalize(rawNumber, s.region)
	if err != nil {
		return nil, err
	}
	if _, err := ParseCategory(string(category)); err != nil {
		return nil, err
	}

	ctx, span := traces.StartSpan(ctx, "reputation.Report", traces.PhoneNumber(number))
	defer span.End()

	score := ReportScore
	if category == ReportSafe {
		score = SafeScore
	}

	rec := &Record{
		Number:      number,
		Tags:        []Tag{Tag(category)},
		ReportCount: 1,
		Score:       score,
		Label:       label,
		UpdatedAt:   time.Now(),
	}

	if err := s.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("report %s: %w", number, err)
	}

	metrics.ReputationReportsTotal.WithLabelValues(string(category)).Inc()
	logging.L(ctx).Info("reputation report recorded",
		"number", number,
		"category", category,
		"score", score,
	)
	return rec, nil
}
