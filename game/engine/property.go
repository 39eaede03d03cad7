package engine

import (
	"fmt"
	"math/rand"
)

// Property is an income-generating holding located at a station. The owner is
// stored as a player ID; an empty owner means the property is on the market.
type Property struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	StationID    string           `json:"station_id"`
	Category     PropertyCategory `json:"category"`
	BasePrice    Money            `json:"base_price"`
	CurrentPrice Money            `json:"current_price"`
	IncomeRate   float64          `json:"income_rate"`
	UpgradeLevel int              `json:"upgrade_level"`
	OwnerID      string           `json:"owner_id,omitempty"`
	Monopoly     bool             `json:"monopoly"`
}

// SalePrice is what the owner receives when selling: 70% of current price.
func (p *Property) SalePrice() Money {
	return p.CurrentPrice.MulPercent(SalePricePercent)
}

// PropertyMarket is the registry of all properties plus the market-wide
// pricing climate. Iteration uses the Order slice for determinism.
type PropertyMarket struct {
	Properties map[string]*Property         `json:"properties"`
	Order      []string                     `json:"order"`
	Condition  MarketCondition              `json:"condition"`
	Trends     map[PropertyCategory]float64 `json:"trends"`
}

// NewPropertyMarket creates an empty market in normal condition.
func NewPropertyMarket() *PropertyMarket {
	return &PropertyMarket{
		Properties: make(map[string]*Property),
		Condition:  MarketNormal,
		Trends:     make(map[PropertyCategory]float64),
	}
}

// AddProperty registers a property. Duplicate IDs are rejected.
func (m *PropertyMarket) AddProperty(p *Property) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("property must have an ID")
	}
	if _, exists := m.Properties[p.ID]; exists {
		return fmt.Errorf("property %q already exists", p.ID)
	}
	if p.CurrentPrice == 0 {
		p.CurrentPrice = p.BasePrice
	}
	m.Properties[p.ID] = p
	m.Order = append(m.Order, p.ID)
	return nil
}

// Property looks up a property by ID.
func (m *PropertyMarket) Property(id string) (*Property, bool) {
	p, ok := m.Properties[id]
	return p, ok
}

// PropertiesAt returns the properties located at a station, in registry
// order.
func (m *PropertyMarket) PropertiesAt(stationID string) []*Property {
	var out []*Property
	for _, id := range m.Order {
		if p := m.Properties[id]; p != nil && p.StationID == stationID {
			out = append(out, p)
		}
	}
	return out
}

// UnownedProperties returns all properties currently on the market.
func (m *PropertyMarket) UnownedProperties() []*Property {
	var out []*Property
	for _, id := range m.Order {
		if p := m.Properties[id]; p != nil && p.OwnerID == "" {
			out = append(out, p)
		}
	}
	return out
}

// conditionBias is the monthly price drift contributed by the market climate.
var conditionBias = map[MarketCondition]float64{
	MarketBoom:      0.03,
	MarketNormal:    0.0,
	MarketRecession: -0.03,
}

// AdvanceMonth applies monthly market drift: the market condition may shift
// with small probability, each category receives an independent trend in
// [-5%, +5%], and every property's price moves by condition bias plus its
// category trend, re-clamped to [50%, 300%] of base price.
func (m *PropertyMarket) AdvanceMonth(rng *rand.Rand) {
	if rng.Float64() < 0.10 {
		switch m.Condition {
		case MarketNormal:
			if rng.Float64() < 0.5 {
				m.Condition = MarketBoom
			} else {
				m.Condition = MarketRecession
			}
		default:
			m.Condition = MarketNormal
		}
	}

	categories := []PropertyCategory{
		CategoryAgriculture, CategoryCommerce, CategoryIndustry, CategoryTourism, CategoryTech,
	}
	for _, cat := range categories {
		m.Trends[cat] = (rng.Float64() * 0.10) - 0.05
	}

	bias := conditionBias[m.Condition]
	for _, id := range m.Order {
		p := m.Properties[id]
		rate := bias + m.Trends[p.Category]
		next := p.CurrentPrice.MulFloat(1 + rate)
		floor := p.BasePrice.MulPercent(50)
		ceil := p.BasePrice.MulPercent(300)
		if next < floor {
			next = floor
		}
		if next > ceil {
			next = ceil
		}
		p.CurrentPrice = next
	}
}

// ActionResult is the structured outcome of a business operation. Failures
// carry a human-readable reason and guarantee no state was mutated.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Amount  Money  `json:"amount,omitempty"`
}

// PropertyService performs purchases, sales, and income computation. All
// operations are all-or-nothing: on failure nothing is debited, credited, or
// transferred.
type PropertyService struct {
	events EventSink
}

// NewPropertyService creates a service publishing to the given sink. A nil
// sink disables event publication.
func NewPropertyService(events EventSink) *PropertyService {
	return &PropertyService{events: events}
}

// SetEventSink replaces the event sink.
func (s *PropertyService) SetEventSink(events EventSink) {
	s.events = events
}

// Purchase buys a property at its current market price.
func (s *PropertyService) Purchase(gs *GameState, playerID, propertyID string) ActionResult {
	prop, ok := gs.Market.Property(propertyID)
	if !ok {
		return ActionResult{Message: fmt.Sprintf("property %q does not exist", propertyID)}
	}
	return s.PurchaseAt(gs, playerID, propertyID, prop.CurrentPrice)
}

// PurchaseAt buys a property at an explicit price, used by discount effects.
func (s *PropertyService) PurchaseAt(gs *GameState, playerID, propertyID string, price Money) ActionResult {
	buyer, ok := gs.PlayerByID(playerID)
	if !ok {
		return ActionResult{Message: fmt.Sprintf("player %q does not exist", playerID)}
	}
	prop, ok := gs.Market.Property(propertyID)
	if !ok {
		return ActionResult{Message: fmt.Sprintf("property %q does not exist", propertyID)}
	}
	if prop.OwnerID != "" {
		return ActionResult{Message: fmt.Sprintf("%s is already owned", prop.Name)}
	}
	if buyer.Money < price {
		shortfall := price.Sub(buyer.Money)
		return ActionResult{
			Message: fmt.Sprintf("insufficient funds for %s: short by %s", prop.Name, shortfall),
			Amount:  shortfall,
		}
	}

	buyer.Money = buyer.Money.Sub(price)
	prop.OwnerID = buyer.ID
	buyer.addProperty(prop.ID)
	s.recheckMonopoly(gs, prop.StationID)

	s.publish(Event{
		Type:      EventPropertyPurchased,
		PlayerID:  buyer.ID,
		StationID: prop.StationID,
		Amount:    int64(price),
		Message:   fmt.Sprintf("%s bought %s for %s", buyer.Name, prop.Name, price),
	})
	return ActionResult{
		Success: true,
		Message: fmt.Sprintf("bought %s for %s", prop.Name, price),
		Amount:  price,
	}
}

// Sell sells a property back to the market for 70% of its current price.
func (s *PropertyService) Sell(gs *GameState, playerID, propertyID string) ActionResult {
	seller, ok := gs.PlayerByID(playerID)
	if !ok {
		return ActionResult{Message: fmt.Sprintf("player %q does not exist", playerID)}
	}
	prop, ok := gs.Market.Property(propertyID)
	if !ok {
		return ActionResult{Message: fmt.Sprintf("property %q does not exist", propertyID)}
	}
	if prop.OwnerID != seller.ID {
		return ActionResult{Message: fmt.Sprintf("%s does not own %s", seller.Name, prop.Name)}
	}

	proceeds := prop.SalePrice()
	seller.Money = seller.Money.Add(proceeds)
	prop.OwnerID = ""
	seller.removeProperty(prop.ID)
	s.recheckMonopoly(gs, prop.StationID)

	s.publish(Event{
		Type:      EventPropertySold,
		PlayerID:  seller.ID,
		StationID: prop.StationID,
		Amount:    int64(proceeds),
		Message:   fmt.Sprintf("%s sold %s for %s", seller.Name, prop.Name, proceeds),
	})
	return ActionResult{
		Success: true,
		Message: fmt.Sprintf("sold %s for %s", prop.Name, proceeds),
		Amount:  proceeds,
	}
}

// TransferOwnership moves a property to a new owner without payment, used by
// grant effects. An empty newOwnerID returns the property to the market.
func (s *PropertyService) TransferOwnership(gs *GameState, propertyID, newOwnerID string) error {
	prop, ok := gs.Market.Property(propertyID)
	if !ok {
		return fmt.Errorf("property %q does not exist", propertyID)
	}
	if prop.OwnerID != "" {
		if prev, ok := gs.PlayerByID(prop.OwnerID); ok {
			prev.removeProperty(prop.ID)
		}
	}
	prop.OwnerID = newOwnerID
	if newOwnerID != "" {
		owner, ok := gs.PlayerByID(newOwnerID)
		if !ok {
			return fmt.Errorf("player %q does not exist", newOwnerID)
		}
		owner.addProperty(prop.ID)
	}
	s.recheckMonopoly(gs, prop.StationID)
	return nil
}

// IncomeFor computes one property's yearly income:
// currentPrice x incomeRate x (1 + 0.1 x upgradeLevel) x (2 if monopoly).
func (s *PropertyService) IncomeFor(gs *GameState, propertyID string) Money {
	prop, ok := gs.Market.Property(propertyID)
	if !ok {
		return 0
	}
	income := prop.CurrentPrice.MulFloat(prop.IncomeRate * (1 + 0.1*float64(prop.UpgradeLevel)))
	if prop.Monopoly {
		income = income.MulRatio(MonopolyIncomeMultiplier, 1)
	}
	return income
}

// YearlyIncome sums income over a player's holdings.
func (s *PropertyService) YearlyIncome(gs *GameState, playerID string) Money {
	player, ok := gs.PlayerByID(playerID)
	if !ok {
		return 0
	}
	var total Money
	for _, id := range player.PropertyIDs {
		total = total.Add(s.IncomeFor(gs, id))
	}
	return total
}

// recheckMonopoly recomputes the monopoly flag for every property at a
// station. A monopoly exists when all properties there share one non-empty
// owner; forming one fires a monopoly event.
func (s *PropertyService) recheckMonopoly(gs *GameState, stationID string) {
	props := gs.Market.PropertiesAt(stationID)
	if len(props) == 0 {
		return
	}
	owner := props[0].OwnerID
	monopoly := owner != ""
	for _, p := range props[1:] {
		if p.OwnerID != owner {
			monopoly = false
			break
		}
	}

	changed := false
	for _, p := range props {
		if p.Monopoly != monopoly {
			changed = true
		}
		p.Monopoly = monopoly
	}
	if monopoly && changed {
		name := owner
		if pl, ok := gs.PlayerByID(owner); ok {
			name = pl.Name
		}
		stationName := stationID
		if st, ok := gs.Network.Station(stationID); ok {
			stationName = st.Name
		}
		s.publish(Event{
			Type:      EventMonopoly,
			PlayerID:  owner,
			StationID: stationID,
			Message:   fmt.Sprintf("%s now holds a monopoly at %s", name, stationName),
		})
	}
}

func (s *PropertyService) publish(e Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}
