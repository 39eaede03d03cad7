// Package config resolves board configurations: the built-in classic board
// plus any JSON boards dropped into a config directory.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/railfortune/railfortune/game/engine"
)

// Manager is the board config registry. It implements
// service.ConfigManager.
type Manager struct {
	mu      sync.RWMutex
	configs map[string]*engine.GameConfig
	logger  *log.Logger
}

// NewManager creates a registry seeded with the built-in classic board.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		configs: make(map[string]*engine.GameConfig),
		logger:  logger,
	}
	m.configs["classic"] = engine.DefaultGameConfig()
	return m
}

// Register validates and adds a board under its own name. Re-registering a
// name replaces the previous board.
func (m *Manager) Register(cfg *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(cfg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.Name] = cfg
	return nil
}

// LoadDir registers every *.json board in the directory. Invalid boards are
// logged and skipped; a missing directory is not an error.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(dir, name)
		cfg, err := ParseFile(path)
		if err != nil {
			m.logger.Printf("skipping board %s: %v", path, err)
			continue
		}
		if err := m.Register(cfg); err != nil {
			m.logger.Printf("skipping board %s: %v", path, err)
			continue
		}
		m.logger.Printf("loaded board %q from %s", cfg.Name, path)
	}
	return nil
}

// ParseFile reads and validates one board definition.
func ParseFile(path string) (*engine.GameConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg engine.GameConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := engine.ValidateGameConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns a board by name.
func (m *Manager) Get(name string) (*engine.GameConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[name]
	if !ok {
		return nil, fmt.Errorf("unknown board config %q", name)
	}
	return cfg, nil
}

// List returns the registered board names, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
