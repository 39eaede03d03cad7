package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/railfortune/railfortune/game/engine"
)

func dialHub(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(sessionID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestServeWSRequiresSession(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBroadcastDeliversToSubscribers(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub, "sess_1")

	hub.Broadcast("sess_1", engine.Event{
		Type:    engine.EventDiceRolled,
		Message: "Alice rolled 4",
		Amount:  4,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if frame.SessionID != "sess_1" {
		t.Errorf("session = %s, want sess_1", frame.SessionID)
	}
	if frame.Event.Type != engine.EventDiceRolled || frame.Event.Amount != 4 {
		t.Errorf("event = %+v", frame.Event)
	}
}

func TestBroadcastIsScopedToSession(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub, "sess_a")

	hub.Broadcast("sess_other", engine.Event{Type: engine.EventMessage, Message: "elsewhere"})
	hub.Broadcast("sess_a", engine.Event{Type: engine.EventMessage, Message: "here"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if frame.Event.Message != "here" {
		t.Errorf("received %q, want only this session's event", frame.Event.Message)
	}
}
