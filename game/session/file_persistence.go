package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend persists each session as one JSON file under a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the storage directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// Save writes the snapshot atomically via a temp file rename.
func (f *FileBackend) Save(data *PersistedSession) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", data.ID, err)
	}
	tmp := f.path(data.ID) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing session %s: %w", data.ID, err)
	}
	return os.Rename(tmp, f.path(data.ID))
}

func (f *FileBackend) Load(id string) (*PersistedSession, error) {
	raw, err := os.ReadFile(f.path(id))
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}
	var data PersistedSession
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", id, err)
	}
	return &data, nil
}

func (f *FileBackend) LoadAll() ([]*PersistedSession, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("listing session dir: %w", err)
	}
	var out []*PersistedSession
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := f.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// a corrupt snapshot must not block the rest
			continue
		}
		out = append(out, data)
	}
	return out, nil
}

func (f *FileBackend) Delete(id string) error {
	err := os.Remove(f.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileBackend) Close() error { return nil }
