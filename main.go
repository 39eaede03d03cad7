// Rail Fortune server. Runs either the HTTP/websocket API or an MCP stdio
// server over the same game service, with file or sqlite session persistence.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/railfortune/railfortune/api"
	"github.com/railfortune/railfortune/game/config"
	"github.com/railfortune/railfortune/game/service"
	"github.com/railfortune/railfortune/game/session"
	"github.com/railfortune/railfortune/transport/mcp"
	ws "github.com/railfortune/railfortune/transport/websocket"
)

const version = "1.0.0"

type appConfig struct {
	Mode        string `env:"MODE" envDefault:"server"`
	Port        string `env:"PORT" envDefault:"8080"`
	Persistence string `env:"PERSISTENCE" envDefault:"file"`
	DataDir     string `env:"DATA_DIR" envDefault:"data/sessions"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/railfortune.db"`
	ConfigDir   string `env:"CONFIG_DIR" envDefault:"configs"`

	// finished games idle longer than this are evicted
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

func loadConfig() (appConfig, error) {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()
	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func buildBackend(cfg appConfig) (session.PersistenceBackend, error) {
	switch cfg.Persistence {
	case "file":
		return session.NewFileBackend(cfg.DataDir)
	case "sqlite":
		return session.NewSQLiteBackend(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown persistence backend %q (want file or sqlite)", cfg.Persistence)
	}
}

// buildStack wires persistence, boards, sessions and the game service. The
// broadcaster may be nil for transports without event push.
func buildStack(cfg appConfig, broadcast service.Broadcaster, logger *log.Logger) (service.GameService, *session.Manager, error) {
	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	configs := config.NewManager(logger)
	if err := configs.LoadDir(cfg.ConfigDir); err != nil {
		return nil, nil, fmt.Errorf("load board configs: %w", err)
	}
	sessions := session.NewManager(backend, configs, broadcast, logger)
	if err := sessions.LoadAll(); err != nil {
		return nil, nil, fmt.Errorf("restore sessions: %w", err)
	}
	svc := service.NewGameService(sessions, configs, broadcast, logger)
	return svc, sessions, nil
}

func run(logger *log.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "server or mcp")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	flag.StringVar(&cfg.Persistence, "persistence", cfg.Persistence, "file or sqlite")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "session snapshot directory for the file backend")
	flag.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "database path for the sqlite backend")
	flag.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "directory of extra board config JSON files")
	flag.Parse()

	switch cfg.Mode {
	case "server":
		hub := ws.NewHub(logger)
		svc, sessions, err := buildStack(cfg, hub.Broadcast, logger)
		if err != nil {
			return err
		}
		defer sessions.Close()
		go func() {
			for range time.Tick(time.Hour) {
				sessions.CleanupExpired(cfg.SessionTTL)
			}
		}()
		srv := api.NewServer(svc, hub, logger)
		logger.Printf("rail fortune %s listening on :%s (persistence=%s)", version, cfg.Port, cfg.Persistence)
		return http.ListenAndServe(":"+cfg.Port, srv.Router())
	case "mcp":
		svc, sessions, err := buildStack(cfg, nil, logger)
		if err != nil {
			return err
		}
		defer sessions.Close()
		return mcp.NewServer(svc, version, logger).ServeStdio()
	default:
		return fmt.Errorf("unknown mode %q (want server or mcp)", cfg.Mode)
	}
}

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	if err := run(logger); err != nil {
		logger.Fatal(err)
	}
}
