package engine

import "math/rand"

// DiceResult holds the outcome of a movement roll. When a correction hook
// fired, Base points to the unmodified roll so it stays available for
// logging and testing.
type DiceResult struct {
	Values  []int       `json:"values"`
	Total   int         `json:"total"`
	Special bool        `json:"special,omitempty"`
	Base    *DiceResult `json:"base,omitempty"`
}

// IsDouble reports whether all dice show the same value (two or more dice).
func (r DiceResult) IsDouble() bool {
	if len(r.Values) < 2 {
		return false
	}
	for _, v := range r.Values[1:] {
		if v != r.Values[0] {
			return false
		}
	}
	return true
}

// Min returns the lowest die value, or 0 for an empty roll.
func (r DiceResult) Min() int {
	if len(r.Values) == 0 {
		return 0
	}
	min := r.Values[0]
	for _, v := range r.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the highest die value, or 0 for an empty roll.
func (r DiceResult) Max() int {
	if len(r.Values) == 0 {
		return 0
	}
	max := r.Values[0]
	for _, v := range r.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// DiceService produces movement rolls. All randomness flows through a single
// seeded source so a full game is reproducible from its seed.
type DiceService struct {
	rng *rand.Rand
}

// NewDiceService creates a service with its own source seeded from seed.
func NewDiceService(seed int64) *DiceService {
	return &DiceService{rng: rand.New(rand.NewSource(seed))}
}

// NewDiceServiceFromRng creates a service sharing an existing source. The
// game manager uses this so dice, market drift, and effect rolls consume one
// deterministic stream.
func NewDiceServiceFromRng(rng *rand.Rand) *DiceService {
	return &DiceService{rng: rng}
}

// Roll rolls diceCount standard dice, each uniform in [1,6].
func (d *DiceService) Roll(diceCount int) DiceResult {
	return d.rollRange(diceCount, 1, 6)
}

// RollForPlayer applies the player's status override before falling back to
// a normal roll:
//
//	Cow        - a single die fixed at 1
//	Unlucky    - each die uniform in [1,2]
//	SuperLucky - each die uniform in [5,6], flagged special
//	otherwise  - standard roll
func (d *DiceService) RollForPlayer(p *Player, baseDiceCount int) DiceResult {
	switch p.Status {
	case StatusCow:
		return DiceResult{Values: []int{1}, Total: 1}
	case StatusUnlucky:
		return d.rollRange(baseDiceCount, 1, 2)
	case StatusSuperLucky:
		result := d.rollRange(baseDiceCount, 5, 6)
		result.Special = true
		return result
	default:
		return d.Roll(baseDiceCount)
	}
}

// CorrectRoll optionally snaps a roll toward landing exactly on the
// destination, or failing that on a nearby event square. Both corrections are
// post-processing on top of the base roll; the base stays attached to the
// returned result. Destination correction is evaluated first, and the event
// correction only runs when the destination correction did not fire.
func (d *DiceService) CorrectRoll(base DiceResult, distToDestination, distToEventSquare int) DiceResult {
	if distToDestination >= 1 && distToDestination <= 6 && distToDestination != base.Total {
		if d.rng.Float64() < DestinationCorrectionChance {
			return snapped(base, distToDestination)
		}
	}
	if distToEventSquare >= 1 && distToEventSquare <= 6 && distToEventSquare != base.Total {
		if d.rng.Float64() < EventCorrectionChance {
			return snapped(base, distToEventSquare)
		}
	}
	return base
}

// Chance returns true with probability p in [0,1].
func (d *DiceService) Chance(p float64) bool {
	return d.rng.Float64() < p
}

// Intn draws a uniform value in [0,n). Used by effects needing a random pick.
func (d *DiceService) Intn(n int) int {
	return d.rng.Intn(n)
}

func (d *DiceService) rollRange(diceCount, lo, hi int) DiceResult {
	if diceCount < 1 {
		diceCount = 1
	}
	values := make([]int, diceCount)
	total := 0
	for i := range values {
		values[i] = lo + d.rng.Intn(hi-lo+1)
		total += values[i]
	}
	return DiceResult{Values: values, Total: total}
}

func snapped(base DiceResult, total int) DiceResult {
	orig := base
	return DiceResult{
		Values:  []int{total},
		Total:   total,
		Special: base.Special,
		Base:    &orig,
	}
}
