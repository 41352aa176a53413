// Package realtime streams call-session events to the overlay UI over
// WebSocket. Clients connect per user and can narrow their subscription to
// specific event types; slow consumers are dropped rather than allowed to
// stall the hub.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tmnguyen/scamshield/internal/callsession"
	"github.com/tmnguyen/scamshield/internal/metrics"
)

// normalCloseCodes are WebSocket close codes that indicate an expected disconnect.
var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Allow non-browser clients
		}
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// envelope is the wire form of a call event.
type envelope struct {
	Type      string               `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	SessionID string               `json:"sessionId"`
	Session   *callsession.Session `json:"session,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// Subscription narrows which events a client receives. A zero Subscription
// means everything for the client's user.
type Subscription struct {
	EventTypes []string `json:"eventTypes"`
}

// Client is one WebSocket connection, bound to a user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	mu     sync.RWMutex
	sub    Subscription
}

// MaxClients caps concurrent WebSocket connections.
const MaxClients = 10000

// Hub fans call-session events out to connected clients. It implements
// callsession.EventSink.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan callsession.Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
	done       chan struct{} // closed when Run exits; prevents upgrade race
	maxClients int

	totalEvents  atomic.Int64
	totalClients atomic.Int64
}

// NewHub creates a call-event hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan callsession.Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		done:       make(chan struct{}),
		maxClients: MaxClients,
	}
}

// Run drives the hub until ctx is canceled. Call in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("realtime hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("realtime hub shutting down, closing client connections")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send) // writePump sends CloseMessage on closed channel
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalClients.Add(1)
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Info("overlay client connected", "user", client.userID, "total", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Info("overlay client disconnected", "user", client.userID, "total", n)

		case ev := <-h.broadcast:
			h.totalEvents.Add(1)
			payload := serialize(ev)
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				if client.wants(ev) {
					select {
					case client.send <- payload:
					default:
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()
			// Remove slow clients under write lock
			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// Publish queues a session event for fan-out. Never blocks; events are
// dropped when the queue is full.
func (h *Hub) Publish(ev callsession.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "type", ev.Type)
	}
}

// wants checks the client's user binding and subscription filter.
func (c *Client) wants(ev callsession.Event) bool {
	if ev.UserID != c.userID {
		return false
	}

	c.mu.RLock()
	types := c.sub.EventTypes
	c.mu.RUnlock()

	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == ev.Type {
			return true
		}
	}
	return false
}

func serialize(ev callsession.Event) []byte {
	data, _ := json.Marshal(envelope{
		Type:      ev.Type,
		Timestamp: time.Now(),
		SessionID: ev.SessionID,
		Session:   ev.Session,
		Message:   ev.Message,
	})
	return data
}

// Stats reports hub counters for the admin/debug surface.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"connectedClients": len(h.clients),
		"totalEvents":      h.totalEvents.Load(),
		"totalClients":     h.totalClients.Load(),
	}
}

// HandleWebSocket upgrades HTTP to WebSocket. userID is the resolved user
// for the connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, userID string) {
	// Reject upgrades after the hub has stopped to prevent orphaned connections.
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n >= h.maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads subscription updates and keeps the connection alive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.mu.Lock()
			c.sub = sub
			c.mu.Unlock()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}
