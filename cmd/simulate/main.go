// Headless simulator: runs computer-vs-computer games to completion and
// prints win statistics, useful for tuning strategies and sanity-checking
// the rules over many seasons.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/railfortune/railfortune/game/ai"
	"github.com/railfortune/railfortune/game/config"
	"github.com/railfortune/railfortune/game/engine"
)

// turn cap per game, generous even for the longest boards
const maxTurns = 100000

type tally struct {
	wins      map[string]int
	turns     int
	completed int
}

func main() {
	cmd := &cli.Command{
		Name:  "simulate",
		Usage: "run computer-vs-computer games and report win rates",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Value: 10, Usage: "number of games to play"},
			&cli.IntFlag{Name: "players", Value: 4, Usage: "players per game (2-4)"},
			&cli.IntFlag{Name: "seed", Value: 0, Usage: "base seed, 0 for time-based"},
			&cli.StringFlag{Name: "config", Value: "classic", Usage: "board name"},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory of extra board JSON files"},
			&cli.StringFlag{
				Name:  "strategies",
				Value: "balanced,aggressive,conservative,speedster",
				Usage: "comma-separated strategy per seat, cycled if short",
			},
			&cli.StringFlag{Name: "difficulty", Value: "strong", Usage: "difficulty for every seat"},
		},
		Action: runSimulation,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSimulation(ctx context.Context, cmd *cli.Command) error {
	games := int(cmd.Int("games"))
	players := int(cmd.Int("players"))
	seed := int64(cmd.Int("seed"))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if players < 2 || players > 4 {
		return fmt.Errorf("players must be 2-4, got %d", players)
	}

	configs := config.NewManager(log.New(os.Stderr, "", 0))
	if err := configs.LoadDir(cmd.String("config-dir")); err != nil {
		return err
	}
	board, err := configs.Get(cmd.String("config"))
	if err != nil {
		return err
	}

	strategies := strings.Split(cmd.String("strategies"), ",")
	difficulty := cmd.String("difficulty")
	specs := make([]engine.PlayerSpec, players)
	for i := range specs {
		strategy := strings.TrimSpace(strategies[i%len(strategies)])
		specs[i] = engine.PlayerSpec{
			Name:       fmt.Sprintf("CPU%d-%s", i+1, strategy),
			Computer:   true,
			Difficulty: difficulty,
			Strategy:   strategy,
		}
	}

	stats := tally{wins: make(map[string]int)}
	for g := 0; g < games; g++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		gameSeed := seed + int64(g)
		winner, turns, err := playOne(board, specs, gameSeed)
		if err != nil {
			return fmt.Errorf("game %d (seed %d): %w", g+1, gameSeed, err)
		}
		if winner != "" {
			stats.wins[winner]++
			stats.completed++
			stats.turns += turns
		}
	}

	report(os.Stdout, &stats, games)
	return nil
}

// playOne runs a single game to the end and reports the winner's name and
// how many turns it took.
func playOne(board *engine.GameConfig, specs []engine.PlayerSpec, seed int64) (string, int, error) {
	state, err := engine.BuildGameState(fmt.Sprintf("sim_%d", seed), board, specs)
	if err != nil {
		return "", 0, err
	}
	m := engine.NewGameManager(state, board.Cards, seed, nil)
	if err := m.Start(); err != nil {
		return "", 0, err
	}

	brains := make(map[string]*ai.ComputerAI, len(state.Players))
	for i, p := range state.Players {
		brains[p.ID] = ai.New(p.ID, specs[i].Difficulty, specs[i].Strategy, seed+int64(i)+1)
	}

	turns := 0
	for !state.GameOver && turns < maxTurns {
		current := state.Current()
		if err := brains[current.ID].TakeTurn(m); err != nil {
			return "", turns, err
		}
		turns++
	}
	if !state.GameOver {
		return "", turns, fmt.Errorf("game did not finish within %d turns", maxTurns)
	}

	winner, ok := state.PlayerByID(state.WinnerID)
	if !ok {
		return "", turns, nil
	}
	return winner.Name, turns, nil
}

func report(w *os.File, stats *tally, games int) {
	names := make([]string, 0, len(stats.wins))
	for name := range stats.wins {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		if stats.wins[names[a]] != stats.wins[names[b]] {
			return stats.wins[names[a]] > stats.wins[names[b]]
		}
		return names[a] < names[b]
	})

	fmt.Fprintf(w, "games: %d completed: %d\n", games, stats.completed)
	if stats.completed > 0 {
		fmt.Fprintf(w, "average turns per game: %d\n", stats.turns/stats.completed)
	}
	for _, name := range names {
		wins := stats.wins[name]
		fmt.Fprintf(w, "  %-20s %3d wins (%.1f%%)\n", name, wins, 100*float64(wins)/float64(stats.completed))
	}
}
