package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/railfortune/railfortune/game/engine"
	"github.com/railfortune/railfortune/game/service"
	"github.com/railfortune/railfortune/game/session"
)

func testConfig(t *testing.T) appConfig {
	t.Helper()
	dir := t.TempDir()
	return appConfig{
		Mode:        "server",
		Port:        "0",
		Persistence: "file",
		DataDir:     filepath.Join(dir, "sessions"),
		SQLitePath:  filepath.Join(dir, "game.db"),
		ConfigDir:   filepath.Join(dir, "configs"),
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv("MODE")
	os.Unsetenv("PORT")
	os.Unsetenv("PERSISTENCE")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Mode != "server" || cfg.Port != "8080" || cfg.Persistence != "file" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PERSISTENCE", "sqlite")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.Persistence != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestBuildBackendSelection(t *testing.T) {
	cfg := testConfig(t)

	backend, err := buildBackend(cfg)
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	if _, ok := backend.(*session.FileBackend); !ok {
		t.Errorf("backend = %T, want *session.FileBackend", backend)
	}
	backend.Close()

	cfg.Persistence = "sqlite"
	backend, err = buildBackend(cfg)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if _, ok := backend.(*session.SQLiteBackend); !ok {
		t.Errorf("backend = %T, want *session.SQLiteBackend", backend)
	}
	backend.Close()

	cfg.Persistence = "redis"
	if _, err := buildBackend(cfg); err == nil {
		t.Error("unknown backend should be rejected")
	}
}

func TestBuildStackServesGames(t *testing.T) {
	cfg := testConfig(t)
	svc, sessions, err := buildStack(cfg, nil, log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("buildStack: %v", err)
	}
	defer sessions.Close()

	sess, err := svc.CreateGame(context.Background(), service.CreateGameRequest{
		Players: []engine.PlayerSpec{{Name: "Alice"}, {Name: "Bob"}},
		Seed:    5,
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if sess.Manager.State().Current().Name != "Alice" {
		t.Errorf("first player = %s", sess.Manager.State().Current().Name)
	}
}

func TestBuildStackRestoresSessions(t *testing.T) {
	cfg := testConfig(t)
	svc, sessions, err := buildStack(cfg, nil, log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("buildStack: %v", err)
	}
	sess, err := svc.CreateGame(context.Background(), service.CreateGameRequest{
		Players: []engine.PlayerSpec{{Name: "Alice"}, {Name: "Bob"}},
		Seed:    5,
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	sessions.Close()

	svc2, sessions2, err := buildStack(cfg, nil, log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("second buildStack: %v", err)
	}
	defer sessions2.Close()
	restored, err := svc2.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession after restart: %v", err)
	}
	if len(restored.Manager.State().Players) != 2 {
		t.Errorf("restored players = %d", len(restored.Manager.State().Players))
	}
}
