// Package profile holds the per-user profile: tier, settings, and call
// history. A default free-tier profile is synthesized on first access, and
// updates are merge-patches — only the fields a patch carries change.
package profile

import (
	"context"
	"time"
)

// Tier is the billing tier. Premium removes daily quotas.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Settings are the user-controlled policy switches.
type Settings struct {
	AutoHangupEnabled bool   `json:"autoHangupEnabled"`
	DefaultRegion     string `json:"defaultRegion"`
}

// Profile is the user record.
type Profile struct {
	UserID    string    `json:"userId"`
	Tier      Tier      `json:"tier"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch is a merge-patch for a profile; nil fields are left untouched.
type Patch struct {
	Tier              *Tier   `json:"tier,omitempty"`
	AutoHangupEnabled *bool   `json:"autoHangupEnabled,omitempty"`
	DefaultRegion     *string `json:"defaultRegion,omitempty"`
}

// CallRecord is one entry in the user's call history, written when a call
// session reaches a terminal state.
type CallRecord struct {
	Number     string    `json:"number"`
	Direction  string    `json:"direction"`
	Duration   int       `json:"durationSeconds"`
	RiskStatus string    `json:"riskStatus"` // "scam" or "safe"
	Label      string    `json:"label,omitempty"`
	Score      int       `json:"score"`
	EndedBy    string    `json:"endedBy"` // "ended", "auto_ended", "blocked"
	EndedAt    time.Time `json:"endedAt"`
}

// Store persists profiles and call history.
type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error) // nil when absent
	Put(ctx context.Context, p *Profile) error
	AppendHistory(ctx context.Context, userID string, rec CallRecord) error
	ListHistory(ctx context.Context, userID string, limit int) ([]CallRecord, error)
}

func defaultProfile(userID string, region string) *Profile {
	now := time.Now()
	return &Profile{
		UserID: userID,
		Tier:   TierFree,
		Settings: Settings{
			AutoHangupEnabled: false,
			DefaultRegion:     region,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
