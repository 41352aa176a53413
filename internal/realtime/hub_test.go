package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/tmnguyen/scamshield/internal/callsession"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// wants tests
// ---------------------------------------------------------------------------

func TestWants_UserBinding(t *testing.T) {
	client := &Client{userID: "u1"}

	own := callsession.Event{Type: callsession.EventCallRinging, UserID: "u1"}
	other := callsession.Event{Type: callsession.EventCallRinging, UserID: "u2"}

	if !client.wants(own) {
		t.Error("client should receive its own user's events")
	}
	if client.wants(other) {
		t.Error("client should NOT receive another user's events")
	}
}

func TestWants_EventTypeFilter(t *testing.T) {
	client := &Client{
		userID: "u1",
		sub: Subscription{
			EventTypes: []string{callsession.EventWarning, callsession.EventRiskUpdate},
		},
	}

	warning := callsession.Event{Type: callsession.EventWarning, UserID: "u1"}
	risk := callsession.Event{Type: callsession.EventRiskUpdate, UserID: "u1"}
	status := callsession.Event{Type: callsession.EventCallStatus, UserID: "u1"}

	if !client.wants(warning) {
		t.Error("should receive warning events")
	}
	if !client.wants(risk) {
		t.Error("should receive risk_update events")
	}
	if client.wants(status) {
		t.Error("should NOT receive call_status events")
	}
}

func TestWants_EmptySubscription(t *testing.T) {
	client := &Client{userID: "u1"}

	event := callsession.Event{Type: callsession.EventCallStatus, UserID: "u1"}
	if !client.wants(event) {
		t.Error("empty subscription should receive every event type")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle tests
// ---------------------------------------------------------------------------

func TestHub_Stats_Initial(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients, got %v", stats["connectedClients"])
	}
	if stats["totalEvents"].(int64) != 0 {
		t.Errorf("Expected 0 total events, got %v", stats["totalEvents"])
	}
}

func TestHub_PublishAndStats(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	h.Publish(callsession.Event{Type: callsession.EventCallRinging, UserID: "u1"})
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("Expected 1 total event, got %v", stats["totalEvents"])
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:    h,
		send:   make(chan []byte, 256),
		userID: "u1",
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["connectedClients"].(int) != 1 {
		t.Errorf("Expected 1 connected client, got %v", stats["connectedClients"])
	}

	h.unregister <- client
	time.Sleep(50 * time.Millisecond)

	stats = h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients after unregister, got %v", stats["connectedClients"])
	}
}

func TestHub_PublishToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:    h,
		send:   make(chan []byte, 256),
		userID: "u1",
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.Publish(callsession.Event{
		Type:      callsession.EventWarning,
		UserID:    "u1",
		SessionID: "s1",
		Message:   "reported as scam",
	})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for published event")
	}
}

func TestHub_FilteredFanout(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Client only wants warnings
	client := &Client{
		hub:    h,
		send:   make(chan []byte, 256),
		userID: "u1",
		sub:    Subscription{EventTypes: []string{callsession.EventWarning}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// Status event should be filtered out
	h.Publish(callsession.Event{Type: callsession.EventCallStatus, UserID: "u1"})
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("Client should NOT receive call_status event")
	default:
	}

	// Warning should come through
	h.Publish(callsession.Event{Type: callsession.EventWarning, UserID: "u1"})

	select {
	case <-client.send:
	case <-time.After(time.Second):
		t.Error("Timeout waiting for warning event")
	}
}

func TestHub_CrossUserIsolation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:    h,
		send:   make(chan []byte, 256),
		userID: "u1",
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.Publish(callsession.Event{Type: callsession.EventCallRinging, UserID: "u2"})
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("u1's client should NOT receive u2's events")
	default:
	}
}

func TestHub_ContextCancellation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Hub stopped
	case <-time.After(2 * time.Second):
		t.Error("Hub did not stop after context cancellation")
	}
}
