package session

import (
	"time"

	"github.com/railfortune/railfortune/game/engine"
)

// AISpec records how a computer player was configured so it can be rebuilt
// after a restart.
type AISpec struct {
	Difficulty string `json:"difficulty"`
	Strategy   string `json:"strategy"`
}

// PersistedSession is the durable form of a session: the full game state
// plus the metadata needed to rebuild the manager and its computer players.
// The random stream is reseeded on load, so a restored game is valid but not
// a bit-exact continuation of the original roll sequence.
type PersistedSession struct {
	ID             string                `json:"id"`
	ConfigName     string                `json:"config_name"`
	Seed           int64                 `json:"seed"`
	CreatedAt      time.Time             `json:"created_at"`
	LastAccessedAt time.Time             `json:"last_accessed_at"`
	AIs            map[string]AISpec     `json:"ais,omitempty"`
	State          *engine.GameState     `json:"state"`
	Pending        *engine.PendingBranch `json:"pending,omitempty"`
}

// PersistenceBackend stores session snapshots. Implementations: JSON files
// on disk and a SQLite database.
type PersistenceBackend interface {
	Save(data *PersistedSession) error
	Load(id string) (*PersistedSession, error)
	LoadAll() ([]*PersistedSession, error)
	Delete(id string) error
	Close() error
}
