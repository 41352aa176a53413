// Package callsession drives the live call overlay: a session moves from
// ringing to connected and then to one of the terminal states ended,
// auto_ended, or blocked. At most one session is active per user; starting a
// new call supersedes the previous one. Risk enrichment runs asynchronously
// and can arm a cancelable auto-hangup timer.
package callsession

import (
	"context"
	"errors"
	"time"

	"github.com/tmnguyen/scamshield/internal/reputation"
)

var (
	ErrNotFound      = errors.New("callsession: no such session")
	ErrFinished      = errors.New("callsession: session already in a terminal state")
	ErrBadTransition = errors.New("callsession: transition not allowed from current state")
)

// Status is the session lifecycle state. Terminal states absorb all further
// transitions.
type Status string

const (
	StatusRinging   Status = "ringing"
	StatusConnected Status = "connected"
	StatusEnded     Status = "ended"
	StatusAutoEnded Status = "auto_ended"
	StatusBlocked   Status = "blocked"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusEnded || s == StatusAutoEnded || s == StatusBlocked
}

// Direction of the call relative to the user.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Session is a snapshot of one call. Elapsed only ticks while connected.
type Session struct {
	ID          string             `json:"id"`
	UserID      string             `json:"-"`
	Number      string             `json:"number"`
	Direction   Direction          `json:"direction"`
	Status      Status             `json:"status"`
	StartedAt   time.Time          `json:"startedAt"`
	ConnectedAt *time.Time         `json:"connectedAt,omitempty"`
	Elapsed     int                `json:"elapsedSeconds"`
	Risky       bool               `json:"risky"`
	Reputation  *reputation.Record `json:"reputation,omitempty"`
}

// HistoryRecord is the snapshot written when a session reaches a terminal
// state.
type HistoryRecord struct {
	Number     string
	Direction  string
	Duration   int
	RiskStatus string // "scam" or "safe"
	Label      string
	Score      int
	EndedBy    string // terminal status name
	EndedAt    time.Time
}

// HistorySink receives terminal-transition snapshots.
type HistorySink interface {
	AppendCall(ctx context.Context, userID string, rec HistoryRecord) error
}

// Event types published to the EventSink.
const (
	EventCallRinging = "call_ringing"
	EventCallStatus  = "call_status"
	EventRiskUpdate  = "risk_update"
	EventWarning     = "warning"
)

// Event is a session happening pushed to connected clients.
type Event struct {
	Type      string   `json:"type"`
	UserID    string   `json:"-"`
	SessionID string   `json:"sessionId"`
	Session   *Session `json:"session,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// EventSink fans session events out to observers.
type EventSink interface {
	Publish(ev Event)
}

// Lookuper resolves a number to its reputation record.
type Lookuper interface {
	Lookup(ctx context.Context, number string) (*reputation.Record, error)
}

// SettingsProvider answers per-user policy questions.
type SettingsProvider interface {
	AutoHangupEnabled(ctx context.Context, userID string) bool
}

// Blocker adds a number to the user's blocklist.
type Blocker interface {
	Block(ctx context.Context, userID, number string) error
}
