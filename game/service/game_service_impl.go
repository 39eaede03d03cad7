package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/railfortune/railfortune/game/ai"
	"github.com/railfortune/railfortune/game/engine"
)

// Broadcaster receives every domain event of a session as it happens, on top
// of the session's own polling buffer. The websocket hub plugs in here.
type Broadcaster func(sessionID string, e engine.Event)

type gameService struct {
	sessions  SessionManager
	configs   ConfigManager
	broadcast Broadcaster
	logger    *log.Logger
}

// NewGameService wires the service over its stores. A nil broadcaster
// disables push delivery; polling via GetEvents still works.
func NewGameService(sessions SessionManager, configs ConfigManager, broadcast Broadcaster, logger *log.Logger) GameService {
	if logger == nil {
		logger = log.Default()
	}
	return &gameService{
		sessions:  sessions,
		configs:   configs,
		broadcast: broadcast,
		logger:    logger,
	}
}

func (g *gameService) CreateGame(ctx context.Context, req CreateGameRequest) (*Session, error) {
	configName := req.ConfigName
	if configName == "" {
		configName = "classic"
	}
	cfg, err := g.configs.Get(configName)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", configName, err)
	}

	sessionID := uuid.New().String()
	state, err := engine.BuildGameState(sessionID, cfg, req.Players)
	if err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	session := &Session{
		ID:             sessionID,
		ConfigName:     configName,
		Seed:           seed,
		AIs:            make(map[string]*ai.ComputerAI),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	session.Manager = engine.NewGameManager(state, cfg.Cards, seed, g.sinkFor(session))

	for i, spec := range req.Players {
		if spec.Computer {
			player := state.Players[i]
			session.AIs[player.ID] = ai.New(player.ID, spec.Difficulty, spec.Strategy, seed+int64(i)+1)
		}
	}

	if err := session.Manager.Start(); err != nil {
		return nil, err
	}
	if err := g.sessions.Create(session); err != nil {
		return nil, err
	}
	g.logger.Printf("created session %s on board %q with %d players (seed %d)",
		sessionID, configName, len(req.Players), seed)
	return session, nil
}

func (g *gameService) sinkFor(session *Session) engine.EventSink {
	return EventSinkFor(session, g.broadcast)
}

func (g *gameService) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := g.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	// LastAccessedAt is read under the mutex by listings and snapshots
	session.Mu.Lock()
	session.Touch()
	session.Mu.Unlock()
	return session, nil
}

func (g *gameService) ListSessions(ctx context.Context) []SessionInfo {
	var infos []SessionInfo
	for _, s := range g.sessions.List() {
		s.Mu.Lock()
		state := s.Manager.State()
		names := make([]string, 0, len(state.Players))
		for _, p := range state.Players {
			names = append(names, p.Name)
		}
		infos = append(infos, SessionInfo{
			ID:             s.ID,
			ConfigName:     s.ConfigName,
			Players:        names,
			Turn:           state.Turn,
			Year:           state.Year,
			Month:          state.Month,
			GameOver:       state.GameOver,
			CreatedAt:      s.CreatedAt,
			LastAccessedAt: s.LastAccessedAt,
		})
		s.Mu.Unlock()
	}
	return infos
}

func (g *gameService) DeleteSession(ctx context.Context, sessionID string) error {
	return g.sessions.Delete(sessionID)
}

func (g *gameService) GetState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	session, err := g.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Mu.Lock()
	defer session.Mu.Unlock()
	return session.Manager.State(), nil
}

func (g *gameService) GetEvents(ctx context.Context, sessionID string, since int) ([]engine.Event, error) {
	session, err := g.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Mu.Lock()
	defer session.Mu.Unlock()
	if since < 0 || since > len(session.Events) {
		since = 0
	}
	out := make([]engine.Event, len(session.Events)-since)
	copy(out, session.Events[since:])
	return out, nil
}

// withSession runs fn under the session mutex and persists the session
// afterwards when the operation succeeded.
func (g *gameService) withSession(ctx context.Context, sessionID string, fn func(*Session) error) error {
	session, err := g.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Mu.Lock()
	defer session.Mu.Unlock()
	if err := fn(session); err != nil {
		return err
	}
	if err := g.sessions.Save(session); err != nil {
		g.logger.Printf("persisting session %s failed: %v", sessionID, err)
	}
	return nil
}

func (g *gameService) RollAndMove(ctx context.Context, sessionID string) (*engine.MoveOutcome, error) {
	var out *engine.MoveOutcome
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		var err error
		out, err = s.Manager.RollAndMove()
		return err
	})
	return out, err
}

func (g *gameService) ChooseBranch(ctx context.Context, sessionID, stationID string) (*engine.MoveOutcome, error) {
	var out *engine.MoveOutcome
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		var err error
		out, err = s.Manager.ChooseBranch(stationID)
		return err
	})
	return out, err
}

func (g *gameService) UseCard(ctx context.Context, sessionID string, req UseCardRequest) (*engine.CardOutcome, error) {
	var out *engine.CardOutcome
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		var err error
		out, err = s.Manager.UseCard(req.CardID, req.Params)
		return err
	})
	return out, err
}

func (g *gameService) BuyProperty(ctx context.Context, sessionID, propertyID string) (engine.ActionResult, error) {
	var res engine.ActionResult
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		var err error
		res, err = s.Manager.BuyProperty(propertyID)
		return err
	})
	return res, err
}

func (g *gameService) SellProperty(ctx context.Context, sessionID, propertyID string) (engine.ActionResult, error) {
	var res engine.ActionResult
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		var err error
		res, err = s.Manager.SellProperty(propertyID)
		return err
	})
	return res, err
}

func (g *gameService) UpgradeProperty(ctx context.Context, sessionID, propertyID string) (engine.ActionResult, error) {
	var res engine.ActionResult
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		var err error
		res, err = s.Manager.UpgradeProperty(propertyID)
		return err
	})
	return res, err
}

func (g *gameService) BuyCard(ctx context.Context, sessionID, cardName string) (engine.ActionResult, error) {
	var res engine.ActionResult
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		var err error
		res, err = s.Manager.BuyCard(cardName)
		return err
	})
	return res, err
}

func (g *gameService) EndTurn(ctx context.Context, sessionID string) error {
	return g.withSession(ctx, sessionID, func(s *Session) error {
		return s.Manager.EndTurn()
	})
}

// ComputerTurn lets the computer player whose turn is open play it out. The
// caller gets the state after the turn, typically to decide whether to call
// again for the next computer in line.
func (g *gameService) ComputerTurn(ctx context.Context, sessionID string) (*engine.GameState, error) {
	var state *engine.GameState
	err := g.withSession(ctx, sessionID, func(s *Session) error {
		current := s.Manager.State().Current()
		if current == nil || !current.IsComputer {
			return ErrNotComputerTurn
		}
		brain, ok := s.AIs[current.ID]
		if !ok {
			return fmt.Errorf("no AI attached to player %s", current.ID)
		}
		if err := brain.TakeTurn(s.Manager); err != nil {
			return err
		}
		state = s.Manager.State()
		return nil
	})
	return state, err
}

func (g *gameService) ListConfigs(ctx context.Context) []string {
	return g.configs.List()
}
