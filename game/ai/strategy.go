package ai

import "strings"

// Difficulty controls how reliably a computer player picks its best-scored
// option. Weaker difficulties sometimes discard the top choice.
type Difficulty string

const (
	DifficultyWeak   Difficulty = "weak"
	DifficultyNormal Difficulty = "normal"
	DifficultyStrong Difficulty = "strong"
)

// ignoreTopChance is the probability of discarding the best-scored option.
var ignoreTopChance = map[Difficulty]float64{
	DifficultyWeak:   0.35,
	DifficultyNormal: 0.10,
	DifficultyStrong: 0.0,
}

// purchaseGate is the minimum property score a difficulty insists on before
// buying. Weak players settle for marginal holdings.
var purchaseGate = map[Difficulty]int{
	DifficultyWeak:   10,
	DifficultyNormal: 30,
	DifficultyStrong: 30,
}

// ParseDifficulty maps a config string to a difficulty, defaulting to normal.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(s)) {
	case DifficultyWeak, DifficultyNormal, DifficultyStrong:
		return Difficulty(strings.ToLower(s))
	default:
		return DifficultyNormal
	}
}

// StrategyKind names a decision personality.
type StrategyKind string

const (
	StrategyBalanced      StrategyKind = "balanced"
	StrategyAggressive    StrategyKind = "aggressive"
	StrategyConservative  StrategyKind = "conservative"
	StrategyOpportunistic StrategyKind = "opportunistic"
	StrategySpeedster     StrategyKind = "speedster"
)

// ParseStrategy maps a config string to a strategy, defaulting to balanced.
func ParseStrategy(s string) StrategyKind {
	switch StrategyKind(strings.ToLower(s)) {
	case StrategyBalanced, StrategyAggressive, StrategyConservative,
		StrategyOpportunistic, StrategySpeedster:
		return StrategyKind(strings.ToLower(s))
	default:
		return StrategyBalanced
	}
}

// Weights tune the scoring heuristics. Each strategy overrides the balanced
// baseline rather than defining a full table of its own.
type Weights struct {
	// IncomeValue scales how strongly a property's income rate counts.
	IncomeValue float64
	// MonopolyBonus is the extra score for completing a station monopoly.
	MonopolyBonus float64
	// CashReserve is the fraction of money kept out of property budgets.
	CashReserve float64
	// CardAffinity scales card evaluation scores.
	CardAffinity float64
	// AttackBias favors attack cards against the current leader.
	AttackBias float64
	// DestinationPull biases branch choices toward the destination.
	DestinationPull float64
	// PriceTier is the appetite for expensive holdings: above 1 chases
	// high-price high-yield properties, below 1 shies away from them.
	PriceTier float64
	// Risk is the base risk tolerance in [0, 100].
	Risk float64
}

func balancedWeights() Weights {
	return Weights{
		IncomeValue:     1.0,
		MonopolyBonus:   25,
		CashReserve:     0.25,
		CardAffinity:    1.0,
		AttackBias:      1.0,
		DestinationPull: 1.0,
		PriceTier:       1.0,
		Risk:            50,
	}
}

// weightsFor builds the weight table for a strategy by adjusting the
// balanced baseline.
func weightsFor(kind StrategyKind) Weights {
	w := balancedWeights()
	switch kind {
	case StrategyAggressive:
		w.CashReserve = 0.05
		w.MonopolyBonus = 35
		w.AttackBias = 1.6
		w.PriceTier = 1.8
		w.Risk = 80
	case StrategyConservative:
		w.CashReserve = 0.45
		w.IncomeValue = 1.2
		w.AttackBias = 0.5
		w.PriceTier = 0.5
		w.Risk = 25
	case StrategyOpportunistic:
		w.CardAffinity = 1.5
		w.MonopolyBonus = 40
		w.PriceTier = 1.2
		w.Risk = 60
	case StrategySpeedster:
		w.DestinationPull = 2.0
		w.CashReserve = 0.15
		w.CardAffinity = 1.3
		w.Risk = 65
	}
	return w
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
