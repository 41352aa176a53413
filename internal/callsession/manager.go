package callsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmnguyen/scamshield/internal/logging"
	"github.com/tmnguyen/scamshield/internal/metrics"
	"github.com/tmnguyen/scamshield/internal/traces"
)

// Options tune the manager's policy timers.
type Options struct {
	AutoHangupScore int           // hang up risky calls scoring below this
	AutoHangupGrace time.Duration // delay between risk detection and hangup
	Dwell           time.Duration // how long a finished session stays visible
}

type state struct {
	sess       Session
	warned     bool
	graceTimer *time.Timer
	dwellTimer *time.Timer
}

// Manager owns all live call sessions. One active session per user; a new
// Start supersedes the previous one.
type Manager struct {
	lookup   Lookuper
	history  HistorySink
	events   EventSink
	settings SettingsProvider
	blocker  Blocker
	opts     Options

	mu     sync.Mutex
	active map[string]*state // by user id
	byID   map[string]*state // by session id

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a session manager. The given context bounds all async
// work; canceling it (or calling Close) stops every pending timer and lookup.
func NewManager(ctx context.Context, lookup Lookuper, history HistorySink, events EventSink, settings SettingsProvider, blocker Blocker, opts Options) *Manager {
	mctx, cancel := context.WithCancel(ctx)
	return &Manager{
		lookup:   lookup,
		history:  history,
		events:   events,
		settings: settings,
		blocker:  blocker,
		opts:     opts,
		active:   make(map[string]*state),
		byID:     make(map[string]*state),
		ctx:      mctx,
		cancel:   cancel,
	}
}

// Start opens a new session in the ringing state. Any prior session for the
// same user is finalized as ended first. Reputation enrichment runs in the
// background and never blocks the caller.
func (m *Manager) Start(ctx context.Context, userID, number string, dir Direction) (*Session, error) {
	if number == "" {
		return nil, fmt.Errorf("callsession: number is required")
	}
	if dir != DirectionIncoming && dir != DirectionOutgoing {
		return nil, fmt.Errorf("callsession: invalid direction %q", dir)
	}

	_, span := traces.StartSpan(ctx, "callsession.Start", traces.PhoneNumber(number), traces.UserID(userID))
	defer span.End()

	m.mu.Lock()
	var superseded *Session
	if prior, ok := m.active[userID]; ok {
		if !prior.sess.Status.Terminal() {
			m.finalizeLocked(prior, StatusEnded)
			superseded = snapshot(prior)
		}
		m.removeLocked(prior)
	}

	st := &state{
		sess: Session{
			ID:        uuid.New().String(),
			UserID:    userID,
			Number:    number,
			Direction: dir,
			Status:    StatusRinging,
			StartedAt: time.Now(),
		},
	}
	m.active[userID] = st
	m.byID[st.sess.ID] = st
	metrics.ActiveCallSessions.Inc()

	snap := snapshot(st)
	m.mu.Unlock()

	if superseded != nil {
		m.events.Publish(Event{Type: EventCallStatus, UserID: userID, SessionID: superseded.ID, Session: superseded})
	}
	m.events.Publish(Event{Type: EventCallRinging, UserID: userID, SessionID: snap.ID, Session: snap})

	go m.enrich(st.sess.ID, userID, number)

	return snap, nil
}

// enrich looks up the number's reputation and applies the risk policy. If
// the lookup never returns, the session simply stays unenriched.
func (m *Manager) enrich(sessionID, userID, number string) {
	rec, err := m.lookup.Lookup(m.ctx, number)
	if err != nil {
		logging.L(m.ctx).Warn("reputation enrichment failed", "sessionId", sessionID, "error", err)
		return
	}

	enabled := m.settings.AutoHangupEnabled(m.ctx, userID)

	m.mu.Lock()
	st, ok := m.byID[sessionID]
	if !ok || st.sess.Status.Terminal() {
		m.mu.Unlock()
		return
	}

	st.sess.Reputation = rec
	st.sess.Risky = rec.Risky()
	snap := snapshot(st)

	var warn bool
	if st.sess.Risky && st.sess.Status == StatusRinging && !st.warned {
		st.warned = true
		warn = true
	}

	// Only a still-ringing call is eligible for auto-hangup. An answer that
	// beat the lookup wins, no matter how late enrichment lands.
	if enabled && st.sess.Status == StatusRinging && rec.Score < m.opts.AutoHangupScore && st.graceTimer == nil {
		st.graceTimer = time.AfterFunc(m.opts.AutoHangupGrace, func() {
			m.autoHangup(sessionID)
		})
	}
	m.mu.Unlock()

	m.events.Publish(Event{Type: EventRiskUpdate, UserID: userID, SessionID: sessionID, Session: snap})
	if warn {
		m.events.Publish(Event{
			Type:      EventWarning,
			UserID:    userID,
			SessionID: sessionID,
			Session:   snap,
			Message:   "This number has been reported as a scam. Do not share personal information.",
		})
	}
}

// autoHangup fires after the grace delay. A timer that lost the race to a
// terminal transition is a no-op.
func (m *Manager) autoHangup(sessionID string) {
	m.mu.Lock()
	st, ok := m.byID[sessionID]
	if !ok || st.sess.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	metrics.AutoHangupsTotal.Inc()
	m.finalizeLocked(st, StatusAutoEnded)
	snap := snapshot(st)
	userID := st.sess.UserID
	m.mu.Unlock()

	m.events.Publish(Event{Type: EventCallStatus, UserID: userID, SessionID: sessionID, Session: snap})
}

// Answer transitions ringing → connected and cancels any pending auto-hangup.
func (m *Manager) Answer(ctx context.Context, userID, sessionID string) (*Session, error) {
	return m.transition(userID, sessionID, func(st *state) error {
		if st.sess.Status != StatusRinging {
			return ErrBadTransition
		}
		now := time.Now()
		st.sess.Status = StatusConnected
		st.sess.ConnectedAt = &now
		stopTimer(&st.graceTimer)
		return nil
	})
}

// HangUp ends a ringing or connected session.
func (m *Manager) HangUp(ctx context.Context, userID, sessionID string) (*Session, error) {
	return m.transition(userID, sessionID, func(st *state) error {
		m.finalizeLocked(st, StatusEnded)
		return nil
	})
}

// Reject declines a ringing call.
func (m *Manager) Reject(ctx context.Context, userID, sessionID string) (*Session, error) {
	return m.transition(userID, sessionID, func(st *state) error {
		if st.sess.Status != StatusRinging {
			return ErrBadTransition
		}
		m.finalizeLocked(st, StatusEnded)
		return nil
	})
}

// Block adds the number to the user's blocklist and transitions the session
// to blocked. The blocklist write happens first; its failure rejects the
// whole operation.
func (m *Manager) Block(ctx context.Context, userID, sessionID string) (*Session, error) {
	m.mu.Lock()
	st, ok := m.byID[sessionID]
	if !ok || st.sess.UserID != userID {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if st.sess.Status.Terminal() {
		m.mu.Unlock()
		return nil, ErrFinished
	}
	number := st.sess.Number
	m.mu.Unlock()

	if err := m.blocker.Block(ctx, userID, number); err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}

	return m.transition(userID, sessionID, func(st *state) error {
		m.finalizeLocked(st, StatusBlocked)
		return nil
	})
}

// Active returns the user's current session, or nil. Finished sessions stay
// visible for the dwell period.
func (m *Manager) Active(ctx context.Context, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.active[userID]
	if !ok {
		return nil
	}
	return snapshot(st)
}

// Close cancels all pending timers and async lookups.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.byID {
		stopTimer(&st.graceTimer)
		stopTimer(&st.dwellTimer)
		if !st.sess.Status.Terminal() {
			metrics.ActiveCallSessions.Dec()
		}
	}
	m.active = make(map[string]*state)
	m.byID = make(map[string]*state)
}

func (m *Manager) transition(userID, sessionID string, apply func(*state) error) (*Session, error) {
	m.mu.Lock()
	st, ok := m.byID[sessionID]
	if !ok || st.sess.UserID != userID {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if st.sess.Status.Terminal() {
		m.mu.Unlock()
		return nil, ErrFinished
	}
	if err := apply(st); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	snap := snapshot(st)
	m.mu.Unlock()

	m.events.Publish(Event{Type: EventCallStatus, UserID: userID, SessionID: sessionID, Session: snap})
	return snap, nil
}

// finalizeLocked moves a session to a terminal state, writes the history
// snapshot, and schedules the dwell-then-clear. Caller holds m.mu.
func (m *Manager) finalizeLocked(st *state, status Status) {
	stopTimer(&st.graceTimer)

	now := time.Now()
	duration := 0
	if st.sess.ConnectedAt != nil {
		duration = int(now.Sub(*st.sess.ConnectedAt).Seconds())
	}
	st.sess.Status = status
	st.sess.Elapsed = duration
	metrics.ActiveCallSessions.Dec()

	riskStatus := "safe"
	if st.sess.Risky {
		riskStatus = "scam"
	}
	rec := HistoryRecord{
		Number:     st.sess.Number,
		Direction:  string(st.sess.Direction),
		Duration:   duration,
		RiskStatus: riskStatus,
		EndedBy:    string(status),
		EndedAt:    now,
	}
	if st.sess.Reputation != nil {
		rec.Label = st.sess.Reputation.Label
		rec.Score = st.sess.Reputation.Score
	}
	if err := m.history.AppendCall(m.ctx, st.sess.UserID, rec); err != nil {
		logging.L(m.ctx).Warn("call history write failed",
			"sessionId", st.sess.ID, "error", err)
	}

	sessionID := st.sess.ID
	st.dwellTimer = time.AfterFunc(m.opts.Dwell, func() {
		m.clear(sessionID)
	})
}

// clear drops a finished session after its dwell period.
func (m *Manager) clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.byID[sessionID]
	if !ok || !st.sess.Status.Terminal() {
		return
	}
	m.removeLocked(st)
}

func (m *Manager) removeLocked(st *state) {
	stopTimer(&st.graceTimer)
	stopTimer(&st.dwellTimer)
	delete(m.byID, st.sess.ID)
	if cur, ok := m.active[st.sess.UserID]; ok && cur == st {
		delete(m.active, st.sess.UserID)
	}
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// snapshot copies the session for callers. Elapsed ticks while connected.
func snapshot(st *state) *Session {
	s := st.sess
	if s.Status == StatusConnected && s.ConnectedAt != nil {
		s.Elapsed = int(time.Since(*s.ConnectedAt).Seconds())
	}
	if st.sess.Reputation != nil {
		rec := *st.sess.Reputation
		s.Reputation = &rec
	}
	return &s
}
