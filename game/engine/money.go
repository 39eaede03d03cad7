package engine

import "fmt"

// MaxMoney is the upper clamp for every money amount in the game.
const MaxMoney Money = 999_999_999_999

// Money is a fixed-point non-negative currency amount. The smallest unit is
// one currency unit. All arithmetic re-clamps into [0, MaxMoney]; subtraction
// below zero clamps to zero rather than going negative.
type Money int64

// NewMoney creates a clamped money amount from a raw value.
func NewMoney(v int64) Money {
	return clampMoney(v)
}

// Add returns m + o, clamped to MaxMoney.
func (m Money) Add(o Money) Money {
	return clampMoney(int64(m) + int64(o))
}

// Sub returns m - o, clamped to zero.
func (m Money) Sub(o Money) Money {
	return clampMoney(int64(m) - int64(o))
}

// MulPercent returns m scaled by pct/100, clamped.
func (m Money) MulPercent(pct int64) Money {
	return m.MulRatio(pct, 100)
}

// MulRatio returns m scaled by num/den, clamped. A zero denominator returns m
// unchanged; callers supplying ratios are expected to pass den > 0.
func (m Money) MulRatio(num, den int64) Money {
	if den == 0 {
		return m
	}
	return clampMoney(int64(m) * num / den)
}

// MulFloat returns m scaled by f, clamped. Used for income-rate style
// multipliers where the factor comes from configuration.
func (m Money) MulFloat(f float64) Money {
	return clampMoney(int64(float64(m) * f))
}

// String formats the amount with a currency marker for log messages.
func (m Money) String() string {
	return fmt.Sprintf("%dG", int64(m))
}

func clampMoney(v int64) Money {
	if v < 0 {
		return 0
	}
	if v > int64(MaxMoney) {
		return MaxMoney
	}
	return Money(v)
}
