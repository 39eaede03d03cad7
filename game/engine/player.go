package engine

import "fmt"

// DelayedBomb is a detonation token planted on a player by a card effect.
// The turn engine counts it down at turn start; at zero it explodes and costs
// the holder a share of their money.
type DelayedBomb struct {
	TurnsLeft   int `json:"turns_left"`
	LossPercent int `json:"loss_percent"`
}

// Player is a participant in the game. Locations and ownership are stored as
// IDs resolved through the GameState registries.
type Player struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	IsComputer  bool         `json:"is_computer"`
	Money       Money        `json:"money"`
	Debt        Money        `json:"debt"`
	StationID   string       `json:"station_id"`
	PropertyIDs []string     `json:"property_ids"`
	Hand        []*Card      `json:"hand"`
	Bank        []*Card      `json:"bank"`
	Status      PlayerStatus `json:"status"`
	StatusTurns int          `json:"status_turns"`
	HasDebuff   bool         `json:"has_debuff"`
	Bomb        *DelayedBomb `json:"bomb,omitempty"`
	Rank        int          `json:"rank"`
}

// NewPlayer creates a player with normal status and no holdings.
func NewPlayer(id, name string, isComputer bool, money Money) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		IsComputer: isComputer,
		Money:      money,
		Status:     StatusNormal,
	}
}

// NetWorth is money plus current property value minus debt. It can be
// negative, so it is reported as a raw int64 rather than clamped Money.
func (p *Player) NetWorth(market *PropertyMarket) int64 {
	total := int64(p.Money) - int64(p.Debt)
	for _, id := range p.PropertyIDs {
		if prop, ok := market.Property(id); ok {
			total += int64(prop.CurrentPrice)
		}
	}
	return total
}

// OwnsProperty reports whether the player owns the given property.
func (p *Player) OwnsProperty(propertyID string) bool {
	for _, id := range p.PropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}

func (p *Player) addProperty(propertyID string) {
	if !p.OwnsProperty(propertyID) {
		p.PropertyIDs = append(p.PropertyIDs, propertyID)
	}
}

func (p *Player) removeProperty(propertyID string) {
	for i, id := range p.PropertyIDs {
		if id == propertyID {
			p.PropertyIDs = append(p.PropertyIDs[:i], p.PropertyIDs[i+1:]...)
			return
		}
	}
}

// AddCard places a card into the hand, overflowing into the card bank when
// the hand is full and the bank is unlocked.
func (p *Player) AddCard(c *Card, maxHand int, bankUnlocked bool) error {
	if len(p.Hand) < maxHand {
		p.Hand = append(p.Hand, c)
		return nil
	}
	if bankUnlocked {
		p.Bank = append(p.Bank, c)
		return nil
	}
	return fmt.Errorf("hand is full (%d cards) and the card bank is locked", maxHand)
}

// FindCard looks up a card by ID across hand and bank.
func (p *Player) FindCard(cardID string) (*Card, bool) {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c, true
		}
	}
	for _, c := range p.Bank {
		if c.ID == cardID {
			return c, true
		}
	}
	return nil, false
}

// RemoveCard detaches a card from the player and returns it, or nil when the
// player does not hold it.
func (p *Player) RemoveCard(cardID string) *Card {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c
		}
	}
	for i, c := range p.Bank {
		if c.ID == cardID {
			p.Bank = append(p.Bank[:i], p.Bank[i+1:]...)
			return c
		}
	}
	return nil
}

// AllCards returns hand then bank cards in order.
func (p *Player) AllCards() []*Card {
	out := make([]*Card, 0, len(p.Hand)+len(p.Bank))
	out = append(out, p.Hand...)
	out = append(out, p.Bank...)
	return out
}

// ApplyStatus sets a duration-bearing status on the player.
func (p *Player) ApplyStatus(status PlayerStatus, turns int) {
	p.Status = status
	p.StatusTurns = turns
	if status == StatusNormal {
		p.StatusTurns = 0
	}
}

// TickStatus decrements the status duration, resetting to normal at zero.
// The turn engine calls this once per turn; effects never tick durations
// themselves.
func (p *Player) TickStatus() {
	if p.Status == StatusNormal {
		return
	}
	p.StatusTurns--
	if p.StatusTurns <= 0 {
		p.Status = StatusNormal
		p.StatusTurns = 0
	}
}
