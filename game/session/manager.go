// Package session keeps the live session registry and its durable storage.
// Sessions live in memory while the server runs; every state-changing
// operation snapshots them through a persistence backend so games survive a
// restart.
package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/railfortune/railfortune/game/ai"
	"github.com/railfortune/railfortune/game/engine"
	"github.com/railfortune/railfortune/game/service"
)

// Manager is the in-memory session registry backed by a persistence backend.
// It implements service.SessionManager.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*service.Session
	backend   PersistenceBackend
	configs   service.ConfigManager
	broadcast service.Broadcaster
	logger    *log.Logger
}

// NewManager creates a registry over the given backend. The config manager
// and broadcaster are needed to rebuild restored sessions with the same
// wiring fresh sessions get.
func NewManager(backend PersistenceBackend, configs service.ConfigManager, broadcast service.Broadcaster, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		sessions:  make(map[string]*service.Session),
		backend:   backend,
		configs:   configs,
		broadcast: broadcast,
		logger:    logger,
	}
}

// LoadAll restores every persisted session into memory. Snapshots whose
// board config no longer exists are skipped with a log line rather than
// failing startup.
func (m *Manager) LoadAll() error {
	snapshots, err := m.backend.LoadAll()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, snap := range snapshots {
		restored, err := m.restore(snap)
		if err != nil {
			m.logger.Printf("skipping session %s: %v", snap.ID, err)
			continue
		}
		m.sessions[snap.ID] = restored
	}
	m.logger.Printf("restored %d sessions", len(m.sessions))
	return nil
}

// restore rebuilds a live session from its snapshot: a manager over the
// saved state, an event sink, and the computer players.
func (m *Manager) restore(snap *PersistedSession) (*service.Session, error) {
	if snap.State == nil {
		return nil, fmt.Errorf("snapshot has no game state")
	}
	cfg, err := m.configs.Get(snap.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("board config %q: %w", snap.ConfigName, err)
	}

	restored := &service.Session{
		ID:             snap.ID,
		ConfigName:     snap.ConfigName,
		Seed:           snap.Seed,
		AIs:            make(map[string]*ai.ComputerAI),
		CreatedAt:      snap.CreatedAt,
		LastAccessedAt: snap.LastAccessedAt,
	}
	restored.Manager = engine.NewGameManager(snap.State, cfg.Cards, snap.Seed, service.EventSinkFor(restored, m.broadcast))
	// a snapshot taken mid-movement keeps its open branch choice
	restored.Manager.RestorePendingBranch(snap.Pending)

	for i, p := range snap.State.Players {
		if !p.IsComputer {
			continue
		}
		spec := snap.AIs[p.ID]
		restored.AIs[p.ID] = ai.New(p.ID, spec.Difficulty, spec.Strategy, snap.Seed+int64(i)+1)
	}
	return restored, nil
}

// snapshot captures the durable view of a session. The caller holds the
// session mutex.
func snapshot(s *service.Session) *PersistedSession {
	snap := &PersistedSession{
		ID:             s.ID,
		ConfigName:     s.ConfigName,
		Seed:           s.Seed,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		State:          s.Manager.State(),
		Pending:        s.Manager.PendingBranch(),
	}
	if len(s.AIs) > 0 {
		snap.AIs = make(map[string]AISpec, len(s.AIs))
		for id, brain := range s.AIs {
			snap.AIs[id] = AISpec{
				Difficulty: string(brain.Difficulty),
				Strategy:   string(brain.Strategy),
			}
		}
	}
	return snap
}

// Create registers a new session and writes its first snapshot.
func (m *Manager) Create(s *service.Session) error {
	m.mu.Lock()
	if _, exists := m.sessions[s.ID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return m.backend.Save(snapshot(s))
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return s, nil
}

// List returns all live sessions in unspecified order.
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*service.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Delete removes a session from memory and storage.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return service.ErrSessionNotFound
	}
	return m.backend.Delete(id)
}

// CleanupExpired evicts finished games that have been idle longer than
// maxIdle from memory and storage. Unfinished games are never evicted; their
// snapshot is the only copy of an in-progress game. Returns how many sessions
// were removed.
func (m *Manager) CleanupExpired(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		s.Mu.Lock()
		stale := s.Manager.State().GameOver && s.LastAccessedAt.Before(cutoff)
		s.Mu.Unlock()
		if stale {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, id := range expired {
		if err := m.backend.Delete(id); err != nil {
			m.logger.Printf("deleting expired session %s: %v", id, err)
		}
	}
	if len(expired) > 0 {
		m.logger.Printf("evicted %d expired sessions", len(expired))
	}
	return len(expired)
}

// Save writes a fresh snapshot of the session.
func (m *Manager) Save(s *service.Session) error {
	return m.backend.Save(snapshot(s))
}

// Close flushes and closes the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
