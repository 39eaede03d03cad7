package service

import (
	"sync"
	"time"

	"github.com/railfortune/railfortune/game/ai"
	"github.com/railfortune/railfortune/game/engine"
)

// Session is one live game plus its bookkeeping: the manager driving the
// rules, the computer players attached to it, and a bounded event buffer for
// polling clients. The mutex serializes all game operations on the session.
type Session struct {
	ID             string
	ConfigName     string
	Seed           int64
	Manager        *engine.GameManager
	AIs            map[string]*ai.ComputerAI
	CreatedAt      time.Time
	LastAccessedAt time.Time

	Mu     sync.Mutex
	Events []engine.Event
}

// Touch refreshes the last-accessed timestamp.
func (s *Session) Touch() {
	s.LastAccessedAt = time.Now()
}

// AppendEvent records an event in the bounded buffer. Callers hold the
// session mutex.
func (s *Session) AppendEvent(e engine.Event) {
	s.Events = append(s.Events, e)
	if len(s.Events) > engine.MaxEventLog {
		s.Events = s.Events[len(s.Events)-engine.MaxEventLog:]
	}
}

// EventSinkFor builds the event sink of a session: buffer for polling
// clients, broadcaster for push clients. The engine calls it while the
// session mutex is held by the operation that triggered the event. Session
// restore uses the same wiring so loaded games behave like fresh ones.
func EventSinkFor(s *Session, broadcast Broadcaster) engine.EventSink {
	return engine.SinkFunc(func(e engine.Event) {
		s.AppendEvent(e)
		if broadcast != nil {
			broadcast(s.ID, e)
		}
	})
}

// SessionManager stores and retrieves sessions. Implementations decide how
// sessions survive restarts.
type SessionManager interface {
	Create(s *Session) error
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	// Save persists the session's current state.
	Save(s *Session) error
}

// ConfigManager resolves board configurations by name.
type ConfigManager interface {
	Get(name string) (*engine.GameConfig, error)
	List() []string
}

// CreateGameRequest is the input for starting a new game.
type CreateGameRequest struct {
	ConfigName string              `json:"config_name,omitempty"`
	Players    []engine.PlayerSpec `json:"players"`
	Seed       int64               `json:"seed,omitempty"`
}

// SessionInfo is the listing view of a session.
type SessionInfo struct {
	ID             string    `json:"id"`
	ConfigName     string    `json:"config_name"`
	Players        []string  `json:"players"`
	Turn           int       `json:"turn"`
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	GameOver       bool      `json:"game_over"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// UseCardRequest plays a card, optionally carrying selection resolutions
// keyed by the param keys of earlier selection requests.
type UseCardRequest struct {
	CardID string            `json:"card_id"`
	Params map[string]string `json:"params,omitempty"`
}
