package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	config_name      TEXT NOT NULL,
	seed             INTEGER NOT NULL,
	created_at       TEXT NOT NULL,
	last_accessed_at TEXT NOT NULL,
	data             TEXT NOT NULL
);`

// SQLiteBackend persists sessions in a single-file SQLite database. The
// snapshot itself is stored as JSON in the data column; the metadata columns
// exist for ad-hoc inspection with the sqlite3 shell.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database and ensures the schema.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db %s: %w", path, err)
	}
	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Save(data *PersistedSession) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", data.ID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, config_name, seed, created_at, last_accessed_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_accessed_at = excluded.last_accessed_at,
			data             = excluded.data`,
		data.ID, data.ConfigName, data.Seed,
		data.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		data.LastAccessedAt.UTC().Format("2006-01-02T15:04:05Z"),
		string(raw))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", data.ID, err)
	}
	return nil
}

func (s *SQLiteBackend) Load(id string) (*PersistedSession, error) {
	var raw string
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	var data PersistedSession
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", id, err)
	}
	return &data, nil
}

func (s *SQLiteBackend) LoadAll() ([]*PersistedSession, error) {
	rows, err := s.db.Query(`SELECT data FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []*PersistedSession
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var data PersistedSession
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			continue
		}
		out = append(out, &data)
	}
	return out, rows.Err()
}

func (s *SQLiteBackend) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
