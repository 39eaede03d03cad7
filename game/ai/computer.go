// Package ai implements the computer player: scoring heuristics over
// properties, cards, and routes, plus a driver that plays out a full turn
// against the game manager.
package ai

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/railfortune/railfortune/game/engine"
)

// ComputerAI is one computer player's decision maker. It reads game state
// through the manager's public operations and never mutates state directly,
// so human and computer players go through the same rules.
type ComputerAI struct {
	PlayerID   string
	Difficulty Difficulty
	Strategy   StrategyKind

	weights Weights
	rng     *rand.Rand
}

// New creates a computer player from config strings. Unknown difficulty or
// strategy values fall back to normal/balanced.
func New(playerID, difficulty, strategy string, seed int64) *ComputerAI {
	kind := ParseStrategy(strategy)
	return &ComputerAI{
		PlayerID:   playerID,
		Difficulty: ParseDifficulty(difficulty),
		Strategy:   kind,
		weights:    weightsFor(kind),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// RiskTolerance is the strategy's base risk appetite in [0, 100].
func (ai *ComputerAI) RiskTolerance() int {
	return clampScore(ai.weights.Risk)
}

// ignoresTop reports whether this decision discards the best-scored option.
func (ai *ComputerAI) ignoresTop() bool {
	return ai.rng.Float64() < ignoreTopChance[ai.Difficulty]
}

// EvaluateProperty scores a purchase candidate in [0, 100]. Income rate
// dominates, a monopoly completion adds a bonus, and prices beyond the
// player's means score zero.
func (ai *ComputerAI) EvaluateProperty(gs *engine.GameState, propertyID string) int {
	prop, ok := gs.Market.Property(propertyID)
	if !ok {
		return 0
	}
	player, ok := gs.PlayerByID(ai.PlayerID)
	if !ok {
		return 0
	}
	if prop.CurrentPrice > player.Money {
		return 0
	}

	score := prop.IncomeRate * 500 * ai.weights.IncomeValue
	if ai.completesMonopoly(gs, prop) {
		score += ai.weights.MonopolyBonus
	}
	// discount pressure: paying near your whole bankroll is worth less
	ratio := float64(prop.CurrentPrice) / float64(player.Money+1)
	score -= ratio * 20
	// price appetite: a tier above 1 chases big-ticket holdings, below 1
	// shies away from them
	score += ratio * 30 * (ai.weights.PriceTier - 1)
	// undervalued stock is a bargain
	if prop.CurrentPrice < prop.BasePrice {
		score += 10
	}
	return clampScore(score)
}

// completesMonopoly reports whether buying prop leaves every property at its
// station in this player's hands.
func (ai *ComputerAI) completesMonopoly(gs *engine.GameState, prop *engine.Property) bool {
	siblings := gs.Market.PropertiesAt(prop.StationID)
	if len(siblings) < 2 {
		return false
	}
	for _, sib := range siblings {
		if sib.ID == prop.ID {
			continue
		}
		if sib.OwnerID != ai.PlayerID {
			return false
		}
	}
	return true
}

// SelectPropertiesToBuy picks which of the offered properties to purchase,
// best score first, within the strategy's cash reserve. A candidate that
// completes a monopoly is taken even when its score would not make the cut.
func (ai *ComputerAI) SelectPropertiesToBuy(gs *engine.GameState, candidateIDs []string) []string {
	player, ok := gs.PlayerByID(ai.PlayerID)
	if !ok {
		return nil
	}

	type scored struct {
		id        string
		score     int
		monopoly  bool
		price     engine.Money
	}
	var candidates []scored
	for _, id := range candidateIDs {
		prop, ok := gs.Market.Property(id)
		if !ok || prop.OwnerID != "" {
			continue
		}
		candidates = append(candidates, scored{
			id:       id,
			score:    ai.EvaluateProperty(gs, id),
			monopoly: ai.completesMonopoly(gs, prop),
			price:    prop.CurrentPrice,
		})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].monopoly != candidates[b].monopoly {
			return candidates[a].monopoly
		}
		return candidates[a].score > candidates[b].score
	})

	budget := player.Money.MulFloat(1 - ai.weights.CashReserve)
	var picks []string
	for i, c := range candidates {
		if c.price > budget {
			continue
		}
		if c.score < purchaseGate[ai.Difficulty] && !c.monopoly {
			continue
		}
		if i == 0 && !c.monopoly && ai.ignoresTop() {
			continue
		}
		picks = append(picks, c.id)
		budget = budget.Sub(c.price)
	}
	return picks
}

// SelectPropertiesToSell picks holdings to liquidate until the proceeds
// cover the needed amount. Monopoly members are only touched once every
// standalone property is gone.
func (ai *ComputerAI) SelectPropertiesToSell(gs *engine.GameState, needed engine.Money) []string {
	player, ok := gs.PlayerByID(ai.PlayerID)
	if !ok {
		return nil
	}

	var standalone, protected []*engine.Property
	for _, id := range player.PropertyIDs {
		prop, ok := gs.Market.Property(id)
		if !ok {
			continue
		}
		if prop.Monopoly {
			protected = append(protected, prop)
		} else {
			standalone = append(standalone, prop)
		}
	}
	byScoreAsc := func(props []*engine.Property) {
		sort.SliceStable(props, func(a, b int) bool {
			return ai.EvaluateProperty(gs, props[a].ID) < ai.EvaluateProperty(gs, props[b].ID)
		})
	}
	byScoreAsc(standalone)
	byScoreAsc(protected)

	var picks []string
	var raised engine.Money
	for _, prop := range append(standalone, protected...) {
		if raised >= needed {
			break
		}
		picks = append(picks, prop.ID)
		raised = raised.Add(prop.SalePrice())
	}
	return picks
}

// EvaluateCard scores playing a card right now in [0, 100].
func (ai *ComputerAI) EvaluateCard(gs *engine.GameState, routes *engine.RouteCalculator, card *engine.Card) int {
	player, ok := gs.PlayerByID(ai.PlayerID)
	if !ok {
		return 0
	}
	if ok, _ := card.RestrictionSatisfied(gs, player, routes); !ok {
		return 0
	}

	var score float64
	switch card.Type {
	case engine.CardMovement:
		dist := routes.DistanceToDestination(player.StationID, gs.DestinationID)
		if dist == engine.UnreachableDistance {
			dist = 0
		}
		// the farther from the destination, the more movement is worth
		score = float64(dist) * 6 * ai.weights.DestinationPull
	case engine.CardAttack:
		leader := gs.Leader()
		if leader != nil && leader.ID != ai.PlayerID {
			score = 55 * ai.weights.AttackBias
		} else {
			score = 15
		}
	case engine.CardDefense:
		if player.Status == engine.StatusNormal {
			score = 40
		}
	case engine.CardConvenience, engine.CardSpecial:
		score = 45
	}
	return clampScore(score * ai.weights.CardAffinity)
}

// ChooseCard picks a card worth playing this turn, or nil. The risk
// tolerance acts as the minimum score.
func (ai *ComputerAI) ChooseCard(gs *engine.GameState, routes *engine.RouteCalculator) *engine.Card {
	player, ok := gs.PlayerByID(ai.PlayerID)
	if !ok || player.Status == engine.StatusSealed {
		return nil
	}
	var best *engine.Card
	bestScore := 0
	for _, c := range player.Hand {
		if !c.Usable() {
			continue
		}
		if s := ai.EvaluateCard(gs, routes, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	if best == nil || bestScore < 100-ai.RiskTolerance() {
		return nil
	}
	if ai.ignoresTop() {
		return nil
	}
	return best
}

// SelectCardToBuy picks at most one shop offer worth its price, or "" to
// pass. The price must fit inside the strategy's cash reserve and the card
// type must clear the same risk-tolerance gate as ChooseCard.
func (ai *ComputerAI) SelectCardToBuy(gs *engine.GameState, catalog []engine.CardTemplate, offers []engine.ShopItem) string {
	player, ok := gs.PlayerByID(ai.PlayerID)
	if !ok {
		return ""
	}
	templates := make(map[string]engine.CardTemplate, len(catalog))
	for _, t := range catalog {
		templates[t.Name] = t
	}

	budget := player.Money.MulFloat(1 - ai.weights.CashReserve)
	best := ""
	bestScore := 0
	for _, offer := range offers {
		t, ok := templates[offer.Name]
		if !ok || offer.Price > budget {
			continue
		}
		var score float64
		switch t.Type {
		case engine.CardMovement:
			score = 50 * ai.weights.DestinationPull
		case engine.CardAttack:
			score = 45 * ai.weights.AttackBias
		case engine.CardDefense:
			score = 35
		case engine.CardConvenience, engine.CardSpecial:
			score = 40
		}
		if s := clampScore(score * ai.weights.CardAffinity); s > bestScore {
			best, bestScore = offer.Name, s
		}
	}
	if best == "" || bestScore < 100-ai.RiskTolerance() {
		return ""
	}
	if ai.ignoresTop() {
		return ""
	}
	return best
}

// routeScore is the unclamped value of standing at a station: closer to the
// destination is better, scaled by the strategy's destination pull.
func (ai *ComputerAI) routeScore(gs *engine.GameState, routes *engine.RouteCalculator, stationID string) float64 {
	d := routes.DistanceToDestination(stationID, gs.DestinationID)
	return float64(100-d*8) * ai.weights.DestinationPull
}

// EvaluateRoute scores standing at a station in [0, 100]. Unreachable
// stations score zero.
func (ai *ComputerAI) EvaluateRoute(gs *engine.GameState, routes *engine.RouteCalculator, stationID string) int {
	return clampScore(ai.routeScore(gs, routes, stationID))
}

// DecideBranch picks a direction at a fork, taking the best-scored route.
func (ai *ComputerAI) DecideBranch(gs *engine.GameState, routes *engine.RouteCalculator, choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	best := choices[0]
	bestScore := ai.routeScore(gs, routes, best)
	for _, c := range choices[1:] {
		if s := ai.routeScore(gs, routes, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	if ai.ignoresTop() {
		return choices[ai.rng.Intn(len(choices))]
	}
	return best
}

// ResolveSelection answers an effect's selection request on behalf of this
// player: the richest rival, the best-scored property, the rarest card, or
// the branch toward the destination.
func (ai *ComputerAI) ResolveSelection(gs *engine.GameState, routes *engine.RouteCalculator, req *engine.SelectionRequest) string {
	if req == nil || len(req.Candidates) == 0 {
		return engine.NoSelection
	}
	switch req.Kind {
	case engine.SelectionPlayer:
		best := req.Candidates[0]
		bestWorth := int64(-1 << 62)
		for _, id := range req.Candidates {
			if p, ok := gs.PlayerByID(id); ok && p.NetWorth(gs.Market) > bestWorth {
				best, bestWorth = id, p.NetWorth(gs.Market)
			}
		}
		return best
	case engine.SelectionProperty:
		best := req.Candidates[0]
		bestPrice := engine.Money(0)
		for _, id := range req.Candidates {
			if prop, ok := gs.Market.Property(id); ok && prop.CurrentPrice > bestPrice {
				best, bestPrice = id, prop.CurrentPrice
			}
		}
		return best
	case engine.SelectionCard:
		player, ok := gs.PlayerByID(ai.PlayerID)
		if !ok {
			return req.Candidates[0]
		}
		rarityRank := map[engine.Rarity]int{
			engine.RarityC: 0, engine.RarityB: 1, engine.RarityA: 2,
			engine.RarityS: 3, engine.RaritySS: 4,
		}
		best := req.Candidates[0]
		bestRank := -1
		for _, id := range req.Candidates {
			if c, ok := player.FindCard(id); ok && rarityRank[c.Rarity] > bestRank {
				best, bestRank = id, rarityRank[c.Rarity]
			}
		}
		return best
	case engine.SelectionStation:
		return ai.DecideBranch(gs, routes, req.Candidates)
	default:
		return req.Candidates[0]
	}
}

// TakeTurn plays one full turn: possibly a card, then the roll, branch
// choices, purchases at the arrival square, and the turn end.
func (ai *ComputerAI) TakeTurn(m *engine.GameManager) error {
	gs := m.State()
	if gs.GameOver {
		return engine.ErrGameOver
	}
	current := gs.Current()
	if current == nil || current.ID != ai.PlayerID {
		return fmt.Errorf("it is not %s's turn", ai.PlayerID)
	}

	var arrival *engine.ArrivalOutcome

	if card := ai.ChooseCard(gs, m.Routes()); card != nil {
		arrival = ai.playCard(m, card)
	}

	// roll unless a movement card already finished the trip
	if gs.Phase == engine.PhaseAction {
		out, err := m.RollAndMove()
		if err != nil {
			return err
		}
		for out.NeedsChoice {
			out, err = m.ChooseBranch(ai.DecideBranch(gs, m.Routes(), out.Choices))
			if err != nil {
				return err
			}
		}
		arrival = out.Arrival
	}

	if arrival != nil && len(arrival.PropertyOffers) > 0 {
		for _, id := range ai.SelectPropertiesToBuy(gs, arrival.PropertyOffers) {
			if _, err := m.BuyProperty(id); err != nil {
				return err
			}
		}
	}
	if arrival != nil && len(arrival.ShopOffers) > 0 {
		if name := ai.SelectCardToBuy(gs, m.Catalog(), arrival.ShopOffers); name != "" {
			// a full hand or a lost price race is not a turn-ending problem
			m.BuyCard(name)
		}
	}

	// debt beyond the cash on hand gets serviced by selling holdings, so the
	// year-end settlement can clear it
	if current.Debt > current.Money {
		for _, id := range ai.SelectPropertiesToSell(gs, current.Debt.Sub(current.Money)) {
			if _, err := m.SellProperty(id); err != nil {
				return err
			}
		}
	}
	return m.EndTurn()
}

// playCard runs one card through the selection loop, answering each request
// until the effect settles. Errors abort the card; the turn continues.
func (ai *ComputerAI) playCard(m *engine.GameManager, card *engine.Card) *engine.ArrivalOutcome {
	gs := m.State()
	params := map[string]string{}
	for attempts := 0; attempts < 8; attempts++ {
		out, err := m.UseCard(card.ID, params)
		if err != nil {
			return nil
		}
		if !out.Effect.NeedsSelection {
			return out.Arrival
		}
		choice := ai.ResolveSelection(gs, m.Routes(), out.Effect.Selection)
		if choice == engine.NoSelection {
			return nil
		}
		params[out.Effect.Selection.ParamKey] = choice
	}
	return nil
}
