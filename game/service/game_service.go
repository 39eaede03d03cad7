// Package service exposes the game engine as a session-oriented API shared
// by the REST, websocket, and MCP transports.
package service

import (
	"context"
	"errors"

	"github.com/railfortune/railfortune/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotComputerTurn = errors.New("the current player is not a computer")
)

// GameService is the application-facing surface over game sessions. Every
// transport goes through it; no transport touches the engine directly.
type GameService interface {
	CreateGame(ctx context.Context, req CreateGameRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	ListSessions(ctx context.Context) []SessionInfo
	DeleteSession(ctx context.Context, sessionID string) error

	GetState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetEvents(ctx context.Context, sessionID string, since int) ([]engine.Event, error)

	RollAndMove(ctx context.Context, sessionID string) (*engine.MoveOutcome, error)
	ChooseBranch(ctx context.Context, sessionID, stationID string) (*engine.MoveOutcome, error)
	UseCard(ctx context.Context, sessionID string, req UseCardRequest) (*engine.CardOutcome, error)
	BuyProperty(ctx context.Context, sessionID, propertyID string) (engine.ActionResult, error)
	SellProperty(ctx context.Context, sessionID, propertyID string) (engine.ActionResult, error)
	UpgradeProperty(ctx context.Context, sessionID, propertyID string) (engine.ActionResult, error)
	BuyCard(ctx context.Context, sessionID, cardName string) (engine.ActionResult, error)
	EndTurn(ctx context.Context, sessionID string) error
	ComputerTurn(ctx context.Context, sessionID string) (*engine.GameState, error)

	ListConfigs(ctx context.Context) []string
}
