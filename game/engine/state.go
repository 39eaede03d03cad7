package engine

import (
	"fmt"
	"sort"
)

// GameSettings are the tunable rules of a game session.
type GameSettings struct {
	MaxYears              int     `json:"max_years"`
	InitialMoney          Money   `json:"initial_money"`
	DestinationBonusBase  Money   `json:"destination_bonus_base"`
	PlusAmountBase        Money   `json:"plus_amount_base"`
	MinusAmountBase       Money   `json:"minus_amount_base"`
	LotteryPrize          Money   `json:"lottery_prize"`
	LotteryWinChance      float64 `json:"lottery_win_chance"`
	DebuffDrainPercent    int64   `json:"debuff_drain_percent"`
	MaxHandCards          int     `json:"max_hand_cards"`
	CardBankUnlockYear    int     `json:"card_bank_unlock_year"`
	DebtInterestAnnual    float64 `json:"debt_interest_annual"`
	DiamondYearThresholds []int   `json:"diamond_year_thresholds"`
	MovementDice          int     `json:"movement_dice"`
}

// DefaultGameSettings returns the standard ruleset.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		MaxYears:              10,
		InitialMoney:          100_000_000,
		DestinationBonusBase:  50_000_000,
		PlusAmountBase:        5_000_000,
		MinusAmountBase:       5_000_000,
		LotteryPrize:          30_000_000,
		LotteryWinChance:      0.10,
		DebuffDrainPercent:    2,
		MaxHandCards:          8,
		CardBankUnlockYear:    3,
		DebtInterestAnnual:    0.10,
		DiamondYearThresholds: []int{4, 7, 10},
		MovementDice:          1,
	}
}

// DebuffTokenName is the display name of the roaming debuff token.
const DebuffTokenName = "Gloom Sprite"

// DebuffToken is the roaming negative marker attached to one player at a
// time. It enters play on the first destination arrival, drains a share of
// the holder's money each of their turns, and moves to the nearest other
// player on every subsequent destination arrival.
type DebuffToken struct {
	Name      string `json:"name"`
	HolderID  string `json:"holder_id"`
	TurnsHeld int    `json:"turns_held"`
}

// LogEntry is a bounded game log record kept on the state itself.
type LogEntry struct {
	Turn    int       `json:"turn"`
	Year    int       `json:"year"`
	Month   int       `json:"month"`
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// GameState is the root aggregate of a game session. It is created once per
// session and mutated in place; only the turn engine and the property/card
// services mutate money, ownership, and card collections.
type GameState struct {
	ID            string          `json:"id"`
	Players       []*Player       `json:"players"`
	CurrentPlayer int             `json:"current_player"`
	Turn          int             `json:"turn"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Phase         Phase           `json:"phase"`
	DestinationID string          `json:"destination_id,omitempty"`
	Network       *StationNetwork `json:"network"`
	Market        *PropertyMarket `json:"market"`
	Settings      GameSettings    `json:"settings"`
	Log           []LogEntry      `json:"log"`
	Debuff        *DebuffToken    `json:"debuff,omitempty"`
	CardSeq       int             `json:"card_seq"`
	GameOver      bool            `json:"game_over"`
	WinnerID      string          `json:"winner_id,omitempty"`
}

// Current returns the player whose turn is open.
func (gs *GameState) Current() *Player {
	if len(gs.Players) == 0 {
		return nil
	}
	return gs.Players[gs.CurrentPlayer]
}

// PlayerByID looks up a player.
func (gs *GameState) PlayerByID(id string) (*Player, bool) {
	for _, p := range gs.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// OtherPlayers returns all players except the given one, in seating order.
func (gs *GameState) OtherPlayers(id string) []*Player {
	var out []*Player
	for _, p := range gs.Players {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// NearestOtherPlayer finds the other player closest by rail distance to the
// given player, breaking ties by seating order.
func (gs *GameState) NearestOtherPlayer(routes *RouteCalculator, fromID string) *Player {
	from, ok := gs.PlayerByID(fromID)
	if !ok {
		return nil
	}
	var nearest *Player
	best := UnreachableDistance + 1
	for _, p := range gs.OtherPlayers(fromID) {
		d := routes.DistanceToDestination(from.StationID, p.StationID)
		if d < best {
			best = d
			nearest = p
		}
	}
	return nearest
}

// RecomputeRanks orders players by net worth descending and assigns ranks
// starting at 1. Ties keep seating order.
func (gs *GameState) RecomputeRanks() {
	idx := make([]int, len(gs.Players))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return gs.Players[idx[a]].NetWorth(gs.Market) > gs.Players[idx[b]].NetWorth(gs.Market)
	})
	for rank, i := range idx {
		gs.Players[i].Rank = rank + 1
	}
}

// Leader returns the rank-1 player, or nil before ranks are computed.
func (gs *GameState) Leader() *Player {
	for _, p := range gs.Players {
		if p.Rank == 1 {
			return p
		}
	}
	return nil
}

// AppendLog adds an entry to the bounded event log, dropping the oldest
// entries past MaxEventLog.
func (gs *GameState) AppendLog(t EventType, message string) {
	gs.Log = append(gs.Log, LogEntry{
		Turn:    gs.Turn,
		Year:    gs.Year,
		Month:   gs.Month,
		Type:    t,
		Message: message,
	})
	if len(gs.Log) > MaxEventLog {
		gs.Log = gs.Log[len(gs.Log)-MaxEventLog:]
	}
}

// DiamondLevel is the card-economics multiplier level: 1 plus the number of
// configured year thresholds the calendar has passed.
func (gs *GameState) DiamondLevel() int {
	level := 1
	for _, y := range gs.Settings.DiamondYearThresholds {
		if gs.Year >= y {
			level++
		}
	}
	return level
}

// CardBankUnlocked reports whether the secondary card partition is available.
func (gs *GameState) CardBankUnlocked() bool {
	return gs.Year >= gs.Settings.CardBankUnlockYear
}

// NewCardFromTemplate mints a card instance with a state-scoped sequential
// ID, keeping card creation deterministic for a fixed seed.
func (gs *GameState) NewCardFromTemplate(t CardTemplate) *Card {
	gs.CardSeq++
	return &Card{
		ID:              fmt.Sprintf("card_%04d", gs.CardSeq),
		Name:            t.Name,
		Type:            t.Type,
		Rarity:          t.Rarity,
		UsesLeft:        t.MaxUses,
		MaxUses:         t.MaxUses,
		Restriction:     t.Restriction,
		RestrictionYear: t.RestrictionYear,
		Effect:          t.Effect,
		Params:          copyParams(t.Params),
	}
}

func copyParams(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
