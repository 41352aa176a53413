package callsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tmnguyen/scamshield/internal/reputation"
)

type fakeLookup struct {
	rec   *reputation.Record
	err   error
	hang  bool          // never return until ctx is canceled
	gate  chan struct{} // if set, block until the test closes it
	delay time.Duration
}

func (f *fakeLookup) Lookup(ctx context.Context, number string) (*reputation.Record, error) {
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.rec, f.err
}

type recordingSink struct {
	mu   sync.Mutex
	recs []HistoryRecord
}

func (s *recordingSink) AppendCall(ctx context.Context, userID string, rec HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *recordingSink) records() []HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryRecord, len(s.recs))
	copy(out, s.recs)
	return out
}

type recordingEvents struct {
	mu  sync.Mutex
	evs []Event
}

func (e *recordingEvents) Publish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evs = append(e.evs, ev)
}

func (e *recordingEvents) count(typ string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

type fakeSettings struct{ enabled bool }

func (f *fakeSettings) AutoHangupEnabled(ctx context.Context, userID string) bool { return f.enabled }

type fakeBlocker struct {
	mu      sync.Mutex
	numbers []string
	err     error
}

func (f *fakeBlocker) Block(ctx context.Context, userID, number string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.numbers = append(f.numbers, number)
	return nil
}

func scamRecord(score int) *reputation.Record {
	return &reputation.Record{
		Number:      "+84912345678",
		Tags:        []reputation.Tag{reputation.TagScam},
		ReportCount: 12,
		Score:       score,
		Label:       "Fake police scam",
	}
}

func testOpts() Options {
	return Options{
		AutoHangupScore: 20,
		AutoHangupGrace: 40 * time.Millisecond,
		Dwell:           50 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, lookup Lookuper, settings SettingsProvider) (*Manager, *recordingSink, *recordingEvents, *fakeBlocker) {
	t.Helper()
	hist := &recordingSink{}
	evs := &recordingEvents{}
	blk := &fakeBlocker{}
	m := NewManager(context.Background(), lookup, hist, evs, settings, blk, testOpts())
	t.Cleanup(m.Close)
	return m, hist, evs, blk
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func TestStartRinging(t *testing.T) {
	m, _, evs, _ := newTestManager(t, &fakeLookup{rec: scamRecord(80)}, &fakeSettings{})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.Status != StatusRinging {
		t.Errorf("status = %q, want ringing", sess.Status)
	}
	if sess.Elapsed != 0 {
		t.Errorf("elapsed = %d, want 0 before connect", sess.Elapsed)
	}

	active := m.Active(context.Background(), "u1")
	if active == nil || active.ID != sess.ID {
		t.Fatal("Active should return the started session")
	}
	if n := evs.count(EventCallRinging); n != 1 {
		t.Errorf("ringing events = %d, want 1", n)
	}
}

func TestStartValidation(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLookup{}, &fakeSettings{})

	if _, err := m.Start(context.Background(), "u1", "", DirectionIncoming); err == nil {
		t.Error("empty number should be rejected")
	}
	if _, err := m.Start(context.Background(), "u1", "+84912345678", Direction("sideways")); err == nil {
		t.Error("bad direction should be rejected")
	}
}

func TestEnrichmentMarksRisky(t *testing.T) {
	m, _, evs, _ := newTestManager(t, &fakeLookup{rec: scamRecord(30)}, &fakeSettings{})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		s := m.Active(context.Background(), "u1")
		return s != nil && s.Risky
	}, "session enriched as risky")

	s := m.Active(context.Background(), "u1")
	if s.Reputation == nil || s.Reputation.Label != "Fake police scam" {
		t.Error("reputation snapshot missing after enrichment")
	}
	if n := evs.count(EventWarning); n != 1 {
		t.Errorf("warnings = %d, want exactly 1", n)
	}
	_ = sess
}

func TestAutoHangupFires(t *testing.T) {
	m, hist, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(10)}, &fakeSettings{enabled: true})

	if _, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		recs := hist.records()
		return len(recs) == 1 && recs[0].EndedBy == string(StatusAutoEnded)
	}, "auto-hangup to finalize the session")

	rec := hist.records()[0]
	if rec.RiskStatus != "scam" {
		t.Errorf("risk status = %q, want scam", rec.RiskStatus)
	}
	if rec.Duration != 0 {
		t.Errorf("duration = %d, want 0 for never-connected call", rec.Duration)
	}
}

func TestAutoHangupDisabled(t *testing.T) {
	m, hist, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(10)}, &fakeSettings{enabled: false})

	if _, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if len(hist.records()) != 0 {
		t.Error("auto-hangup fired with the setting off")
	}
	s := m.Active(context.Background(), "u1")
	if s == nil || s.Status != StatusRinging {
		t.Error("session should still be ringing")
	}
}

func TestAutoHangupNotArmedAboveThreshold(t *testing.T) {
	m, hist, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(45)}, &fakeSettings{enabled: true})

	if _, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if len(hist.records()) != 0 {
		t.Error("score 45 must not trigger auto-hangup at threshold 20")
	}
}

func TestAnswerCancelsAutoHangup(t *testing.T) {
	m, hist, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(10)}, &fakeSettings{enabled: true})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		s := m.Active(context.Background(), "u1")
		return s != nil && s.Risky
	}, "risk enrichment")

	if _, err := m.Answer(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	s := m.Active(context.Background(), "u1")
	if s == nil || s.Status != StatusConnected {
		t.Fatal("answered session should stay connected; auto-hangup must be canceled")
	}
	if len(hist.records()) != 0 {
		t.Error("no history entry expected while connected")
	}
}

func TestAnswerBeforeEnrichmentPreventsAutoHangup(t *testing.T) {
	gate := make(chan struct{})
	lookup := &fakeLookup{rec: scamRecord(5), gate: gate}
	m, hist, evs, _ := newTestManager(t, lookup, &fakeSettings{enabled: true})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Answer while the lookup is still in flight, then let it land.
	if _, err := m.Answer(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	close(gate)

	waitFor(t, func() bool { return evs.count(EventRiskUpdate) > 0 }, "late enrichment")

	time.Sleep(120 * time.Millisecond)
	s := m.Active(context.Background(), "u1")
	if s == nil || s.Status != StatusConnected {
		t.Fatal("answered session must stay connected despite late risky enrichment")
	}
	if n := len(hist.records()); n != 0 {
		t.Errorf("history records = %d, want 0 while connected", n)
	}
	if n := evs.count(EventWarning); n != 0 {
		t.Errorf("warnings = %d, want 0 once answered", n)
	}
}

func TestRejectCancelsAutoHangup(t *testing.T) {
	m, hist, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(10)}, &fakeSettings{enabled: true})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		s := m.Active(context.Background(), "u1")
		return s != nil && s.Risky
	}, "risk enrichment")

	if _, err := m.Reject(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	recs := hist.records()
	if len(recs) != 1 || recs[0].EndedBy != string(StatusEnded) {
		t.Fatalf("records = %+v, want single ended entry", recs)
	}
}

func TestBlockAddsToBlocklist(t *testing.T) {
	m, hist, _, blk := newTestManager(t, &fakeLookup{rec: scamRecord(30)}, &fakeSettings{})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	out, err := m.Block(context.Background(), "u1", sess.ID)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if out.Status != StatusBlocked {
		t.Errorf("status = %q, want blocked", out.Status)
	}
	if len(blk.numbers) != 1 || blk.numbers[0] != "+84912345678" {
		t.Errorf("blocklist = %v", blk.numbers)
	}
	recs := hist.records()
	if len(recs) != 1 || recs[0].EndedBy != string(StatusBlocked) {
		t.Errorf("records = %+v, want blocked entry", recs)
	}
}

func TestBlockFailureRejectsOperation(t *testing.T) {
	lookup := &fakeLookup{rec: scamRecord(80)}
	hist := &recordingSink{}
	evs := &recordingEvents{}
	blk := &fakeBlocker{err: errors.New("store down")}
	m := NewManager(context.Background(), lookup, hist, evs, &fakeSettings{}, blk, testOpts())
	t.Cleanup(m.Close)

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := m.Block(context.Background(), "u1", sess.ID); err == nil {
		t.Fatal("blocklist failure must reject the block")
	}
	s := m.Active(context.Background(), "u1")
	if s == nil || s.Status.Terminal() {
		t.Error("session must stay live when the blocklist write fails")
	}
}

func TestSecondCallSupersedes(t *testing.T) {
	m, hist, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(80)}, &fakeSettings{})

	first, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start first: %v", err)
	}
	second, err := m.Start(context.Background(), "u1", "+84987654321", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start second: %v", err)
	}

	s := m.Active(context.Background(), "u1")
	if s == nil || s.ID != second.ID {
		t.Fatal("active session should be the new call")
	}
	recs := hist.records()
	if len(recs) != 1 || recs[0].Number != first.Number || recs[0].EndedBy != string(StatusEnded) {
		t.Errorf("superseded call not finalized as ended: %+v", recs)
	}

	// The superseded session is gone; transitions on it fail.
	if _, err := m.Answer(context.Background(), "u1", first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTerminalStatesAbsorb(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(80)}, &fakeSettings{})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.HangUp(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("HangUp: %v", err)
	}

	if _, err := m.Answer(context.Background(), "u1", sess.ID); !errors.Is(err, ErrFinished) {
		t.Errorf("Answer after hangup: err = %v, want ErrFinished", err)
	}
	if _, err := m.HangUp(context.Background(), "u1", sess.ID); !errors.Is(err, ErrFinished) {
		t.Errorf("double hangup: err = %v, want ErrFinished", err)
	}
}

func TestRejectRequiresRinging(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(80)}, &fakeSettings{})

	sess, _ := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if _, err := m.Answer(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if _, err := m.Reject(context.Background(), "u1", sess.ID); !errors.Is(err, ErrBadTransition) {
		t.Errorf("err = %v, want ErrBadTransition", err)
	}
}

func TestHangingLookupLeavesSessionUsable(t *testing.T) {
	m, hist, _, _ := newTestManager(t, &fakeLookup{hang: true}, &fakeSettings{enabled: true})

	sess, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	s := m.Active(context.Background(), "u1")
	if s == nil || s.Reputation != nil || s.Risky {
		t.Fatal("session should stay unenriched while the lookup hangs")
	}

	if _, err := m.HangUp(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("HangUp: %v", err)
	}
	if recs := hist.records(); len(recs) != 1 || recs[0].RiskStatus != "safe" {
		t.Errorf("records = %+v, want single safe entry", recs)
	}
}

func TestDwellClearsFinishedSession(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(80)}, &fakeSettings{})

	sess, _ := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if _, err := m.HangUp(context.Background(), "u1", sess.ID); err != nil {
		t.Fatalf("HangUp: %v", err)
	}

	// Finished session stays visible during the dwell window.
	if s := m.Active(context.Background(), "u1"); s == nil || s.Status != StatusEnded {
		t.Fatal("finished session should dwell before clearing")
	}

	waitFor(t, func() bool {
		return m.Active(context.Background(), "u1") == nil
	}, "dwell to clear the session")
}

func TestCloseCancelsPendingTimers(t *testing.T) {
	lookup := &fakeLookup{rec: scamRecord(10)}
	hist := &recordingSink{}
	opts := testOpts()
	opts.AutoHangupGrace = 200 * time.Millisecond
	m := NewManager(context.Background(), lookup, hist, &recordingEvents{}, &fakeSettings{enabled: true}, &fakeBlocker{}, opts)

	if _, err := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return m.Active(context.Background(), "u1") != nil && m.Active(context.Background(), "u1").Risky
	}, "risk enrichment")

	m.Close()
	time.Sleep(300 * time.Millisecond)
	if len(hist.records()) != 0 {
		t.Error("auto-hangup timer fired after Close")
	}
}

func TestUserIsolation(t *testing.T) {
	m, _, _, _ := newTestManager(t, &fakeLookup{rec: scamRecord(80)}, &fakeSettings{})

	sess, _ := m.Start(context.Background(), "u1", "+84912345678", DirectionIncoming)
	if _, err := m.Answer(context.Background(), "u2", sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user transition: err = %v, want ErrNotFound", err)
	}
	if s := m.Active(context.Background(), "u2"); s != nil {
		t.Error("u2 should have no active session")
	}
}
