package engine

// StationType represents the kind of square a station is
type StationType string

const (
	StationProperty     StationType = "property"
	StationCardShop     StationType = "card_shop"
	StationPlus         StationType = "plus"
	StationMinus        StationType = "minus"
	StationNiceCard     StationType = "nice_card"
	StationSuperCard    StationType = "super_card"
	StationCardExchange StationType = "card_exchange"
	StationLottery      StationType = "lottery"
)

// PlayerStatus represents a player's temporary condition affecting dice rolls
type PlayerStatus string

const (
	StatusNormal     PlayerStatus = "normal"
	StatusSuperLucky PlayerStatus = "super_lucky"
	StatusUnlucky    PlayerStatus = "unlucky"
	StatusCow        PlayerStatus = "cow"
	StatusSealed     PlayerStatus = "sealed"
)

// CardType classifies cards by their broad purpose
type CardType string

const (
	CardMovement    CardType = "movement"
	CardConvenience CardType = "convenience"
	CardAttack      CardType = "attack"
	CardDefense     CardType = "defense"
	CardSpecial     CardType = "special"
)

// Rarity grades a card from common (C) up to SS
type Rarity string

const (
	RarityC  Rarity = "C"
	RarityB  Rarity = "B"
	RarityA  Rarity = "A"
	RarityS  Rarity = "S"
	RaritySS Rarity = "SS"
)

// UsageRestriction limits when a card may be used
type UsageRestriction string

const (
	RestrictionNone            UsageRestriction = "none"
	RestrictionBeforeMonth12   UsageRestriction = "before_month_12"
	RestrictionAfterYear       UsageRestriction = "after_year"
	RestrictionNearDestination UsageRestriction = "near_destination"
)

// EffectType dispatches a card into the effect catalog
type EffectType string

const (
	EffectAdvance      EffectType = "advance"
	EffectDuplicate    EffectType = "duplicate"
	EffectFreeProperty EffectType = "free_property"
	EffectBulkDiscount EffectType = "bulk_discount"
	EffectCardTheft    EffectType = "card_theft"
	EffectDebuff       EffectType = "debuff"
	EffectPositionSwap EffectType = "position_swap"
	EffectDetonation   EffectType = "detonation"
)

// Phase represents the turn state machine position
type Phase string

const (
	PhaseSetup     Phase = "setup"
	PhaseTurnStart Phase = "turn_start"
	PhaseAction    Phase = "action"
	PhaseMovement  Phase = "movement"
	PhaseArrival   Phase = "arrival"
	PhaseEvent     Phase = "event"
	PhaseTurnEnd   Phase = "turn_end"
)

// MarketCondition is the market-wide pricing climate
type MarketCondition string

const (
	MarketBoom      MarketCondition = "boom"
	MarketNormal    MarketCondition = "normal"
	MarketRecession MarketCondition = "recession"
)

// PropertyCategory groups properties for market trend purposes
type PropertyCategory string

const (
	CategoryAgriculture PropertyCategory = "agriculture"
	CategoryCommerce    PropertyCategory = "commerce"
	CategoryIndustry    PropertyCategory = "industry"
	CategoryTourism     PropertyCategory = "tourism"
	CategoryTech        PropertyCategory = "tech"
)

const (
	// Validation constants
	MinPlayers          = 2
	MaxPlayers          = 4
	MinStations         = 4
	MaxYearsLimit       = 99
	UnreachableDistance = 999999
	MaxEventLog         = 1000
	MaxUpgradeLevel     = 3

	// Economy constants
	SalePricePercent         = 70
	MonopolyIncomeMultiplier = 2

	// Dice correction probabilities; applied as post-processing, the
	// unmodified base roll stays available on the result
	DestinationCorrectionChance = 0.20
	EventCorrectionChance       = 0.15
)

// Coordinate is a station's position on the board map
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}
