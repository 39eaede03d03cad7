// Package mcp exposes the game service as Model Context Protocol tools over
// stdio, so language-model agents can create and play games.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/railfortune/railfortune/game/engine"
	"github.com/railfortune/railfortune/game/service"
)

const instructions = `Rail Fortune is a turn-based rail economy board game.
Create a game with create_game, then on each turn: optionally use_card,
roll_and_move (answering branch forks with choose_branch), buy properties or
cards offered at the arrival square, and end_turn. Use computer_turn whenever
the current player is a computer.`

// Server wraps the MCP server around a game service.
type Server struct {
	svc    service.GameService
	mcp    *server.MCPServer
	logger *log.Logger
}

// NewServer registers every game tool on a fresh MCP server.
func NewServer(svc service.GameService, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		svc: svc,
		mcp: server.NewMCPServer(
			"railfortune",
			version,
			server.WithToolCapabilities(true),
			server.WithInstructions(instructions),
		),
		logger: logger,
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	sessionArg := map[string]any{
		"type":        "string",
		"description": "Session ID returned by create_game",
	}

	s.mcp.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create and start a new game session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_name": map[string]any{
					"type":        "string",
					"description": "Board name (defaults to classic)",
				},
				"players": map[string]any{
					"type":        "array",
					"description": "2 to 4 players",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":       map[string]any{"type": "string"},
							"computer":   map[string]any{"type": "boolean"},
							"difficulty": map[string]any{"type": "string", "description": "weak, normal, or strong"},
							"strategy":   map[string]any{"type": "string", "description": "balanced, aggressive, conservative, opportunistic, or speedster"},
						},
						"required": []string{"name"},
					},
				},
				"seed": map[string]any{
					"type":        "number",
					"description": "Optional seed for a reproducible game",
				},
			},
			Required: []string{"players"},
		},
	}, s.handleCreateGame)

	s.mcp.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List the available board configurations",
		InputSchema: mcp.ToolInputSchema{Type: "object"},
	}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"configs": s.svc.ListConfigs(ctx)})
	})

	s.mcp.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all game sessions",
		InputSchema: mcp.ToolInputSchema{Type: "object"},
	}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"sessions": s.svc.ListSessions(ctx)})
	})

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_state",
		Description: "Get the full game state of a session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionArg},
			Required:   []string{"session_id"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.GetState(ctx, sessionID)
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "roll_and_move",
		Description: "Roll the dice and move the current player; may return a branch choice",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionArg},
			Required:   []string{"session_id"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.RollAndMove(ctx, sessionID)
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "choose_branch",
		Description: "Resolve a pending branch choice with the chosen station ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg,
				"station_id": map[string]any{"type": "string", "description": "One of the offered directions"},
			},
			Required: []string{"session_id", "station_id"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.ChooseBranch(ctx, sessionID, stringArg(args, "station_id"))
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "use_card",
		Description: "Play a card from the current player's hand; selection requests are answered by calling again with params",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg,
				"card_id":    map[string]any{"type": "string"},
				"params": map[string]any{
					"type":        "object",
					"description": "Selection resolutions keyed by param_key from a previous selection request",
				},
			},
			Required: []string{"session_id", "card_id"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		params := map[string]string{}
		if raw, ok := args["params"].(map[string]any); ok {
			for k, v := range raw {
				params[k] = fmt.Sprintf("%v", v)
			}
		}
		return s.svc.UseCard(ctx, sessionID, service.UseCardRequest{
			CardID: stringArg(args, "card_id"),
			Params: params,
		})
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "buy_property",
		Description: "Buy an unowned property at the current player's station",
		InputSchema: propertySchema(sessionArg),
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.BuyProperty(ctx, sessionID, stringArg(args, "property_id"))
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "sell_property",
		Description: "Sell one of the current player's properties at 70% of its price",
		InputSchema: propertySchema(sessionArg),
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.SellProperty(ctx, sessionID, stringArg(args, "property_id"))
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "upgrade_property",
		Description: "Upgrade an owned property to raise its income",
		InputSchema: propertySchema(sessionArg),
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.UpgradeProperty(ctx, sessionID, stringArg(args, "property_id"))
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "buy_card",
		Description: "Buy a card by name; the current player must be at a card shop",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg,
				"name":       map[string]any{"type": "string", "description": "Card name from the shop offers"},
			},
			Required: []string{"session_id", "name"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.BuyCard(ctx, sessionID, stringArg(args, "name"))
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "end_turn",
		Description: "End the current player's turn",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionArg},
			Required:   []string{"session_id"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		if err := s.svc.EndTurn(ctx, sessionID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "computer_turn",
		Description: "Let the computer player whose turn is open play it out",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionArg},
			Required:   []string{"session_id"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		return s.svc.ComputerTurn(ctx, sessionID)
	}))

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_events",
		Description: "Fetch buffered game events from a cursor position",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionArg,
				"since":      map[string]any{"type": "number", "description": "Cursor from a previous call, 0 for all"},
			},
			Required: []string{"session_id"},
		},
	}, s.sessionTool(func(ctx context.Context, sessionID string, args map[string]any) (any, error) {
		since := 0
		if v, ok := args["since"].(float64); ok {
			since = int(v)
		}
		events, err := s.svc.GetEvents(ctx, sessionID, since)
		if err != nil {
			return nil, err
		}
		return map[string]any{"events": events, "next": since + len(events)}, nil
	}))
}

func propertySchema(sessionArg map[string]any) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"session_id":  sessionArg,
			"property_id": map[string]any{"type": "string"},
		},
		Required: []string{"session_id", "property_id"},
	}
}

func (s *Server) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("arguments must be an object"), nil
	}

	req := service.CreateGameRequest{ConfigName: stringArg(args, "config_name")}
	if v, ok := args["seed"].(float64); ok {
		req.Seed = int64(v)
	}
	rawPlayers, ok := args["players"].([]any)
	if !ok {
		return mcp.NewToolResultError("players must be an array"), nil
	}
	for _, raw := range rawPlayers {
		p, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("each player must be an object"), nil
		}
		computer, _ := p["computer"].(bool)
		req.Players = append(req.Players, engine.PlayerSpec{
			Name:       stringArg(p, "name"),
			Computer:   computer,
			Difficulty: stringArg(p, "difficulty"),
			Strategy:   stringArg(p, "strategy"),
		})
	}

	sess, err := s.svc.CreateGame(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"session_id": sess.ID,
		"state":      sess.Manager.State(),
	})
}

// sessionTool adapts a session-scoped handler into an MCP tool handler with
// uniform argument and error handling.
func (s *Server) sessionTool(fn func(ctx context.Context, sessionID string, args map[string]any) (any, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("arguments must be an object"), nil
		}
		sessionID := stringArg(args, "session_id")
		if sessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}
		out, err := fn(ctx, sessionID, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(out)
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
