// Package websocket pushes game events to connected clients. Each client
// subscribes to one session; events published by that session's engine are
// fanned out as JSON frames.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/railfortune/railfortune/game/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the API is same-host or reverse-proxied; origin checks happen there
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is the wire format for one pushed event.
type Frame struct {
	SessionID string       `json:"session_id"`
	Event     engine.Event `json:"event"`
}

// Hub tracks connected clients grouped by session and fans events out to
// them. Slow clients are dropped rather than allowed to stall the game.
type Hub struct {
	mu        sync.RWMutex
	bySession map[string]map[*client]struct{}
	logger    *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		bySession: make(map[string]map[*client]struct{}),
		logger:    logger,
	}
}

// Broadcast delivers one event to every client watching the session. It
// satisfies service.Broadcaster.
func (h *Hub) Broadcast(sessionID string, e engine.Event) {
	frame, err := json.Marshal(Frame{SessionID: sessionID, Event: e})
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := h.bySession[sessionID]
	var stalled []*client
	for c := range clients {
		select {
		case c.send <- frame:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range stalled {
		h.drop(c)
	}
}

// ServeWS upgrades the request and subscribes the client to the session
// named by the "session" query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter is required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	c := &client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}
	h.add(c)
	go c.writePump()
	go c.readPump()
}

// SubscriberCount reports how many clients watch a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bySession[sessionID])
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bySession[c.sessionID] == nil {
		h.bySession[c.sessionID] = make(map[*client]struct{})
	}
	h.bySession[c.sessionID][c] = struct{}{}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	clients, ok := h.bySession[c.sessionID]
	if ok {
		if _, member := clients[c]; member {
			delete(clients, c)
			close(c.send)
			if len(clients) == 0 {
				delete(h.bySession, c.sessionID)
			}
		}
	}
	h.mu.Unlock()
	c.conn.Close()
}

// client is one websocket connection. Clients only receive; inbound frames
// beyond pong control messages are discarded.
type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

func (c *client) readPump() {
	defer c.hub.drop(c)
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
