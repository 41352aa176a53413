// Package reputation implements the community phone-number reputation store.
//
// Every number has a reputation record: a 0-100 trust score (lower is more
// dangerous), a small tag vocabulary, and a community label. Numbers nobody
// has reported get a neutral default record so lookups never fail. A new
// report fully replaces the existing record — reports do not accumulate.
package reputation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// Errors
var (
	ErrEmptyNumber     = errors.New("reputation: phone number is empty")
	ErrInvalidCategory = errors.New("reputation: invalid report category")
)

// Tag labels a number with community-sourced context.
type Tag string

const (
	TagScam     Tag = "scam"
	TagSpam     Tag = "spam"
	TagSafe     Tag = "safe"
	TagDelivery Tag = "delivery"
	TagBusiness Tag = "business"
)

// ReportCategory is the subset of tags a reporter may submit.
type ReportCategory string

const (
	ReportScam ReportCategory = "scam"
	ReportSpam ReportCategory = "spam"
	ReportSafe ReportCategory = "safe"
)

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (ReportCategory, error) {
	switch ReportCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case ReportScam:
		return ReportScam, nil
	case ReportSpam:
		return ReportSpam, nil
	case ReportSafe:
		return ReportSafe, nil
	default:
		return "", ErrInvalidCategory
	}
}

// Score bounds and the default for unknown numbers.
const (
	MinScore     = 0
	MaxScore     = 100
	DefaultScore = 80
	SafeScore    = 100
	ReportScore  = 10 // score after any non-safe report

	// RiskyBelow is the score threshold of the risky predicate.
	RiskyBelow = 50
)

// DefaultLabel is attached to synthesized records for unknown numbers.
const DefaultLabel = "no reports yet"

// Record is the community reputation of a single phone number,
// keyed by the normalized (E.164 where possible) number string.
type Record struct {
	Number      string    `json:"number"`
	Carrier     string    `json:"carrier,omitempty"`
	Tags        []Tag     `json:"tags"`
	ReportCount int       `json:"reportCount"`
	Score       int       `json:"score"` // 0-100, lower = more dangerous
	Label       string    `json:"label,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Risky reports whether the number should trigger the red warning banner
// and feed the auto-hangup decision: tagged scam, or score below 50.
func (r *Record) Risky() bool {
	if r == nil {
		return false
	}
	for _, t := range r.Tags {
		if t == TagScam {
			return true
		}
	}
	return r.Score < RiskyBelow
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag Tag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// defaultRecord synthesizes the neutral record for an unknown number.
func defaultRecord(number string) *Record {
	return &Record{
		Number:      number,
		Tags:        []Tag{},
		ReportCount: 0,
		Score:       DefaultScore,
		Label:       DefaultLabel,
		UpdatedAt:   time.Now(),
	}
}

// Normalize canonicalizes a raw phone number to E.164 using the given
// default region. Numbers that cannot be parsed (short codes, malformed
// input) are keyed verbatim after trimming — lookups still work, they
// just bypass canonicalization.
func Normalize(raw, region string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyNumber
	}

	parsed, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed, nil
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return trimmed, nil
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// Store persists reputation records. Implementations must provide
// read-after-write consistency: a Put must be visible to the next Get.
type Store interface {
	// Get returns the record for a normalized number, or nil if none exists.
	Get(ctx context.Context, number string) (*Record, error)
	// Put replaces any existing record for the number.
	Put(ctx context.Context, record *Record) error
}
