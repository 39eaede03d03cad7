package engine

import "fmt"

// Card is a usable effect item held by a player. A card is destroyed when its
// use count reaches zero or it is explicitly discarded, stolen, or replaced.
type Card struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Type            CardType          `json:"type"`
	Rarity          Rarity            `json:"rarity"`
	UsesLeft        int               `json:"uses_left"`
	MaxUses         int               `json:"max_uses"`
	Restriction     UsageRestriction  `json:"restriction"`
	RestrictionYear int               `json:"restriction_year,omitempty"`
	Effect          EffectType        `json:"effect"`
	Params          map[string]string `json:"params,omitempty"`
}

// Usable reports whether the card has uses remaining.
func (c *Card) Usable() bool {
	return c.UsesLeft > 0
}

// RestrictionSatisfied checks the card's usage restriction against the
// current calendar and the holder's position.
func (c *Card) RestrictionSatisfied(gs *GameState, holder *Player, routes *RouteCalculator) (bool, string) {
	switch c.Restriction {
	case RestrictionNone:
		return true, ""
	case RestrictionBeforeMonth12:
		if gs.Month >= 12 {
			return false, fmt.Sprintf("%s can only be used before month 12", c.Name)
		}
		return true, ""
	case RestrictionAfterYear:
		if gs.Year < c.RestrictionYear {
			return false, fmt.Sprintf("%s unlocks in year %d", c.Name, c.RestrictionYear)
		}
		return true, ""
	case RestrictionNearDestination:
		if gs.DestinationID == "" {
			return false, "no destination is set"
		}
		dist := routes.DistanceToDestination(holder.StationID, gs.DestinationID)
		if dist > 6 {
			return false, fmt.Sprintf("%s requires being within 6 squares of the destination", c.Name)
		}
		return true, ""
	default:
		return true, ""
	}
}

// CardTemplate describes a card kind in the catalog; actual cards are minted
// from templates during setup, shop purchases, and draw events.
type CardTemplate struct {
	Name            string            `json:"name"`
	Type            CardType          `json:"type"`
	Rarity          Rarity            `json:"rarity"`
	MaxUses         int               `json:"max_uses"`
	Restriction     UsageRestriction  `json:"restriction"`
	RestrictionYear int               `json:"restriction_year,omitempty"`
	Effect          EffectType        `json:"effect"`
	Params          map[string]string `json:"params,omitempty"`
	BasePrice       Money             `json:"base_price"`
}

// rarityPriceMultiplier scales shop prices by rarity.
var rarityPriceMultiplier = map[Rarity]int64{
	RarityC:  1,
	RarityB:  2,
	RarityA:  4,
	RarityS:  8,
	RaritySS: 16,
}

// CardPrice is the shop price of a template: base price scaled by rarity and
// by the diamond revision level (which steps up at fixed year thresholds).
func CardPrice(t CardTemplate, diamondLevel int) Money {
	if diamondLevel < 1 {
		diamondLevel = 1
	}
	mult := rarityPriceMultiplier[t.Rarity]
	if mult == 0 {
		mult = 1
	}
	return t.BasePrice.MulRatio(mult*int64(diamondLevel), 1)
}

// DefaultCardCatalog is the built-in card set. Boards may override it in
// configuration; an empty config falls back to this list.
func DefaultCardCatalog() []CardTemplate {
	return []CardTemplate{
		{
			Name: "Express Ticket", Type: CardMovement, Rarity: RarityC, MaxUses: 3,
			Restriction: RestrictionNone, Effect: EffectAdvance,
			Params: map[string]string{"steps": "6"}, BasePrice: 1_000_000,
		},
		{
			Name: "Bullet Train Pass", Type: CardMovement, Rarity: RarityA, MaxUses: 2,
			Restriction: RestrictionNone, Effect: EffectAdvance,
			Params: map[string]string{"steps": "12"}, BasePrice: 4_000_000,
		},
		{
			Name: "Teleport Orb", Type: CardMovement, Rarity: RarityS, MaxUses: 1,
			Restriction: RestrictionNearDestination, Effect: EffectAdvance,
			Params: map[string]string{"to_destination": "true"}, BasePrice: 12_000_000,
		},
		{
			Name: "Copy Machine", Type: CardConvenience, Rarity: RarityS, MaxUses: 1,
			Restriction: RestrictionAfterYear, RestrictionYear: 2, Effect: EffectDuplicate,
			BasePrice: 10_000_000,
		},
		{
			Name: "Land Grant Deed", Type: CardConvenience, Rarity: RaritySS, MaxUses: 1,
			Restriction: RestrictionAfterYear, RestrictionYear: 3, Effect: EffectFreeProperty,
			Params: map[string]string{"max_price": "80000000"}, BasePrice: 30_000_000,
		},
		{
			Name: "Clearance Sale", Type: CardConvenience, Rarity: RarityA, MaxUses: 1,
			Restriction: RestrictionNone, Effect: EffectBulkDiscount,
			Params: map[string]string{"discount": "30"}, BasePrice: 8_000_000,
		},
		{
			Name: "Pickpocket Glove", Type: CardAttack, Rarity: RarityB, MaxUses: 2,
			Restriction: RestrictionNone, Effect: EffectCardTheft, BasePrice: 3_000_000,
		},
		{
			Name: "Cow Curse", Type: CardAttack, Rarity: RarityA, MaxUses: 1,
			Restriction: RestrictionNone, Effect: EffectDebuff,
			Params:    map[string]string{"status": "cow", "turns": "3", "success_rate": "85"},
			BasePrice: 6_000_000,
		},
		{
			Name: "Jinx Bottle", Type: CardAttack, Rarity: RarityB, MaxUses: 2,
			Restriction: RestrictionNone, Effect: EffectDebuff,
			Params:    map[string]string{"status": "unlucky", "turns": "4", "success_rate": "90"},
			BasePrice: 3_500_000,
		},
		{
			Name: "Sealing Talisman", Type: CardAttack, Rarity: RarityS, MaxUses: 1,
			Restriction: RestrictionBeforeMonth12, Effect: EffectDebuff,
			Params:    map[string]string{"status": "sealed", "turns": "2", "success_rate": "85"},
			BasePrice: 9_000_000,
		},
		{
			Name: "Switcheroo", Type: CardSpecial, Rarity: RarityS, MaxUses: 1,
			Restriction: RestrictionNone, Effect: EffectPositionSwap, BasePrice: 11_000_000,
		},
		{
			Name: "Time Bomb", Type: CardAttack, Rarity: RaritySS, MaxUses: 1,
			Restriction: RestrictionAfterYear, RestrictionYear: 2, Effect: EffectDetonation,
			Params:    map[string]string{"countdown": "3", "loss_percent": "20"},
			BasePrice: 20_000_000,
		},
		{
			Name: "Lucky Charm", Type: CardDefense, Rarity: RarityB, MaxUses: 1,
			Restriction: RestrictionNone, Effect: EffectDebuff,
			Params:    map[string]string{"status": "super_lucky", "turns": "3", "success_rate": "100", "self": "true"},
			BasePrice: 4_000_000,
		},
	}
}

// TemplateByName finds a catalog template by name.
func TemplateByName(catalog []CardTemplate, name string) (CardTemplate, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return CardTemplate{}, false
}
