package server

import (
	"context"

	"github.com/tmnguyen/scamshield/internal/callsession"
	"github.com/tmnguyen/scamshield/internal/profile"
)

// historyAdapter lets the session manager write call history through the
// profile service.
type historyAdapter struct {
	profiles *profile.Service
}

func (a *historyAdapter) AppendCall(ctx context.Context, userID string, rec callsession.HistoryRecord) error {
	return a.profiles.AppendHistory(ctx, userID, profile.CallRecord{
		Number:     rec.Number,
		Direction:  rec.Direction,
		Duration:   rec.Duration,
		RiskStatus: rec.RiskStatus,
		Label:      rec.Label,
		Score:      rec.Score,
		EndedBy:    rec.EndedBy,
		EndedAt:    rec.EndedAt,
	})
}

// settingsAdapter answers the session manager's policy questions from the
// user's profile.
type settingsAdapter struct {
	profiles *profile.Service
}

func (a *settingsAdapter) AutoHangupEnabled(ctx context.Context, userID string) bool {
	p, err := a.profiles.Get(ctx, userID)
	if err != nil {
		return false
	}
	return p.Settings.AutoHangupEnabled
}
