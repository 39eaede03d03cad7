package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrGameOver        = errors.New("the game is over")
	ErrWrongPhase      = errors.New("action not allowed in the current phase")
	ErrNoPendingChoice = errors.New("no branch choice is pending")
)

// pendingMovement is a dice movement suspended at a branch point.
type pendingMovement struct {
	dice      DiceResult
	travelled []string
	branch    string
	choices   []string
	remaining int
}

// PendingBranch is the serializable form of a suspended dice movement, so a
// snapshot taken mid-choice restores with the fork still open.
type PendingBranch struct {
	Dice      DiceResult `json:"dice"`
	Travelled []string   `json:"travelled"`
	Branch    string     `json:"branch"`
	Choices   []string   `json:"choices"`
	Remaining int        `json:"remaining"`
}

// MoveOutcome is the result of a dice movement, possibly suspended at a
// branch point. When NeedsChoice is set the caller must follow up with
// ChooseBranch before the turn can continue.
type MoveOutcome struct {
	Dice          DiceResult      `json:"dice"`
	Path          []string        `json:"path"`
	NeedsChoice   bool            `json:"needs_choice"`
	BranchStation string          `json:"branch_station,omitempty"`
	Choices       []string        `json:"choices,omitempty"`
	Arrival       *ArrivalOutcome `json:"arrival,omitempty"`
}

// ShopItem is one purchasable entry at a card shop, priced for the current
// diamond level.
type ShopItem struct {
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// ArrivalOutcome describes what happened when a player landed on a square.
type ArrivalOutcome struct {
	StationID      string     `json:"station_id"`
	StationType    StationType `json:"station_type"`
	Message        string     `json:"message"`
	MoneyDelta     int64      `json:"money_delta,omitempty"`
	PropertyOffers []string   `json:"property_offers,omitempty"`
	ShopOffers     []ShopItem `json:"shop_offers,omitempty"`
	DrewCard       *Card      `json:"drew_card,omitempty"`
	AtDestination  bool       `json:"at_destination"`
}

// CardOutcome wraps a card effect result with the arrival processing that a
// movement effect may have triggered.
type CardOutcome struct {
	Effect  EffectResult    `json:"effect"`
	Arrival *ArrivalOutcome `json:"arrival,omitempty"`
}

// GameManager drives one game: the turn state machine, movement, arrivals,
// the calendar, and game-over detection. All mutation of the game state goes
// through it or through the services it owns, and all randomness is drawn
// from one seeded source so a game replays identically from its seed.
type GameManager struct {
	state      *GameState
	rng        *rand.Rand
	dice       *DiceService
	routes     *RouteCalculator
	properties *PropertyService
	catalog    []CardTemplate
	events     EventSink
	pending    *pendingMovement
}

// NewGameManager wires a manager around an initialized state. The seed feeds
// the single random stream shared by dice, market drift, and effect rolls.
func NewGameManager(state *GameState, catalog []CardTemplate, seed int64, events EventSink) *GameManager {
	if len(catalog) == 0 {
		catalog = DefaultCardCatalog()
	}
	rng := rand.New(rand.NewSource(seed))
	return &GameManager{
		state:      state,
		rng:        rng,
		dice:       NewDiceServiceFromRng(rng),
		routes:     NewRouteCalculator(state.Network),
		properties: NewPropertyService(events),
		catalog:    catalog,
		events:     events,
	}
}

// State exposes the underlying game state for read access and persistence.
func (g *GameManager) State() *GameState { return g.state }

// Routes exposes the route calculator for advisory queries.
func (g *GameManager) Routes() *RouteCalculator { return g.routes }

// Catalog returns the card catalog in effect for this game.
func (g *GameManager) Catalog() []CardTemplate { return g.catalog }

// SetEventSink replaces the event sink on the manager and its services.
func (g *GameManager) SetEventSink(events EventSink) {
	g.events = events
	g.properties.SetEventSink(events)
}

// PendingBranch returns the suspended movement awaiting a ChooseBranch call,
// or nil when none is pending.
func (g *GameManager) PendingBranch() *PendingBranch {
	if g.pending == nil {
		return nil
	}
	return &PendingBranch{
		Dice:      g.pending.dice,
		Travelled: append([]string(nil), g.pending.travelled...),
		Branch:    g.pending.branch,
		Choices:   append([]string(nil), g.pending.choices...),
		Remaining: g.pending.remaining,
	}
}

// RestorePendingBranch reinstates a suspended movement on a freshly built
// manager, typically right after loading a snapshot.
func (g *GameManager) RestorePendingBranch(pb *PendingBranch) {
	if pb == nil {
		g.pending = nil
		return
	}
	g.pending = &pendingMovement{
		dice:      pb.Dice,
		travelled: pb.Travelled,
		branch:    pb.Branch,
		choices:   pb.Choices,
		remaining: pb.Remaining,
	}
}

// Start opens the first turn. It picks an initial destination when the board
// configuration did not set one.
func (g *GameManager) Start() error {
	if g.state.GameOver {
		return ErrGameOver
	}
	if g.state.Phase != PhaseSetup {
		return fmt.Errorf("%w: game already started", ErrWrongPhase)
	}
	if g.state.DestinationID == "" {
		g.setNewDestination("")
	}
	g.state.Turn = 1
	if g.state.Year == 0 {
		g.state.Year = 1
	}
	if g.state.Month == 0 {
		g.state.Month = 1
	}
	g.state.RecomputeRanks()
	g.beginTurn()
	return nil
}

// beginTurn runs turn-start processing for the current player: bomb
// countdown, roaming debuff drain, and the phase transition into action.
func (g *GameManager) beginTurn() {
	p := g.state.Current()
	g.state.Phase = PhaseTurnStart
	g.publish(Event{
		Type:     EventTurnChanged,
		PlayerID: p.ID,
		Turn:     g.state.Turn,
		Year:     g.state.Year,
		Month:    g.state.Month,
		Message:  fmt.Sprintf("turn %d: %s (year %d month %d)", g.state.Turn, p.Name, g.state.Year, g.state.Month),
	})

	if p.Bomb != nil {
		p.Bomb.TurnsLeft--
		if p.Bomb.TurnsLeft <= 0 {
			loss := p.Money.MulPercent(int64(p.Bomb.LossPercent))
			p.Money = p.Money.Sub(loss)
			p.Bomb = nil
			g.publishMoney(p, -int64(loss), fmt.Sprintf("the bomb on %s went off, costing %s", p.Name, loss))
		} else {
			g.publish(Event{Type: EventMessage, PlayerID: p.ID,
				Message: fmt.Sprintf("the bomb on %s ticks: %d turns left", p.Name, p.Bomb.TurnsLeft)})
		}
	}

	if g.state.Debuff != nil && g.state.Debuff.HolderID == p.ID {
		g.state.Debuff.TurnsHeld++
		drain := p.Money.MulPercent(g.state.Settings.DebuffDrainPercent)
		if drain > 0 {
			p.Money = p.Money.Sub(drain)
			g.publishMoney(p, -int64(drain), fmt.Sprintf("%s drains %s from %s", g.state.Debuff.Name, drain, p.Name))
		}
	}

	g.state.Phase = PhaseAction
}

// cardRefused wraps a rule refusal as an outcome rather than an error, so
// callers surface the reason the same way they surface effect messages.
func cardRefused(msg string) *CardOutcome {
	return &CardOutcome{Effect: EffectResult{Success: false, Message: msg}}
}

// UseCard plays one of the current player's cards. When the effect needs an
// external choice, the returned outcome carries a selection request and the
// card is not consumed; the caller resolves the choice by calling UseCard
// again with the selection placed in params under the request's ParamKey.
// Rule refusals (sealed status, restrictions, no valid target) come back as
// unsuccessful outcomes; errors are reserved for invalid requests.
func (g *GameManager) UseCard(cardID string, params map[string]string) (*CardOutcome, error) {
	if g.state.GameOver {
		return nil, ErrGameOver
	}
	if g.state.Phase != PhaseAction {
		return nil, fmt.Errorf("%w: cards are played before rolling", ErrWrongPhase)
	}
	p := g.state.Current()
	card, ok := p.FindCard(cardID)
	if !ok {
		return nil, fmt.Errorf("card %q is not in %s's possession", cardID, p.Name)
	}
	effect, ok := EffectFor(card.Effect)
	if !ok {
		return nil, fmt.Errorf("card %s has an unknown effect %q", card.Name, card.Effect)
	}
	if p.Status == StatusSealed {
		return cardRefused(fmt.Sprintf("%s is sealed and cannot use cards", p.Name)), nil
	}
	if !card.Usable() {
		return cardRefused(fmt.Sprintf("%s has no uses left", card.Name)), nil
	}
	if ok, reason := card.RestrictionSatisfied(g.state, p, g.routes); !ok {
		return cardRefused(reason), nil
	}

	ctx := &EffectContext{
		State:      g.state,
		Actor:      p,
		Card:       card,
		Dice:       g.dice,
		Routes:     g.routes,
		Properties: g.properties,
		Events:     g.events,
		Params:     params,
	}
	if ok, reason := effect.CanExecute(ctx); !ok {
		return cardRefused(reason), nil
	}

	result := effect.Execute(ctx)
	outcome := &CardOutcome{Effect: result}
	if result.NeedsSelection {
		return outcome, nil
	}
	if result.Consumed {
		card.UsesLeft--
		if card.UsesLeft <= 0 {
			p.RemoveCard(card.ID)
		}
		g.publish(Event{Type: EventCardUsed, PlayerID: p.ID, Message: result.Message,
			Detail: map[string]string{"card": card.Name}})
		g.state.AppendLog(EventCardUsed, result.Message)
	}
	if result.Moved {
		g.publish(Event{Type: EventPlayerMoved, PlayerID: p.ID, StationID: p.StationID, Message: result.Message})
		g.state.Phase = PhaseArrival
		outcome.Arrival = g.handleArrival(p)
		if result.AllowsContinuation {
			// a step card leaves the dice roll available
			g.state.Phase = PhaseAction
		} else {
			g.state.Phase = PhaseTurnEnd
		}
	}
	return outcome, nil
}

// RollAndMove rolls for the current player and walks the board. The roll may
// be snapped toward the destination or a nearby event square before movement.
func (g *GameManager) RollAndMove() (*MoveOutcome, error) {
	if g.state.GameOver {
		return nil, ErrGameOver
	}
	if g.state.Phase != PhaseAction {
		return nil, fmt.Errorf("%w: rolling requires the action phase", ErrWrongPhase)
	}
	if g.pending != nil {
		return nil, fmt.Errorf("a branch choice is pending at %s", g.pending.branch)
	}
	p := g.state.Current()

	roll := g.dice.RollForPlayer(p, g.state.Settings.MovementDice)
	distDest := g.routes.DistanceToDestination(p.StationID, g.state.DestinationID)
	distEvent := UnreachableDistance
	if _, d, ok := g.routes.NearestStationOfType(p.StationID,
		StationPlus, StationNiceCard, StationSuperCard, StationLottery); ok {
		distEvent = d
	}
	roll = g.dice.CorrectRoll(roll, distDest, distEvent)
	g.publish(Event{Type: EventDiceRolled, PlayerID: p.ID, Amount: int64(roll.Total),
		Message: fmt.Sprintf("%s rolled %d", p.Name, roll.Total)})

	g.state.Phase = PhaseMovement
	route, err := g.routes.StepwiseRoute(p.StationID, roll.Total)
	if err != nil {
		g.state.Phase = PhaseAction
		return nil, err
	}
	return g.continueMovement(p, roll, route.Path, route)
}

// ChooseBranch resolves a suspended dice movement with the chosen direction.
func (g *GameManager) ChooseBranch(nextStationID string) (*MoveOutcome, error) {
	if g.state.GameOver {
		return nil, ErrGameOver
	}
	if g.pending == nil {
		return nil, ErrNoPendingChoice
	}
	valid := false
	for _, c := range g.pending.choices {
		if c == nextStationID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%q is not one of the available directions", nextStationID)
	}
	p := g.state.Current()
	route, err := g.routes.ResumeRoute(g.pending.branch, nextStationID, g.pending.remaining)
	if err != nil {
		return nil, err
	}
	pending := g.pending
	g.pending = nil
	return g.continueMovement(p, pending.dice, append(pending.travelled, route.Path...), route)
}

// continueMovement either suspends at the next branch or finalizes the move.
func (g *GameManager) continueMovement(p *Player, roll DiceResult, travelled []string, route RouteResult) (*MoveOutcome, error) {
	if route.NeedsChoice {
		p.StationID = route.BranchStation
		g.pending = &pendingMovement{
			dice:      roll,
			travelled: travelled,
			branch:    route.BranchStation,
			choices:   route.Choices,
			remaining: route.RemainingSteps,
		}
		return &MoveOutcome{
			Dice:          roll,
			Path:          travelled,
			NeedsChoice:   true,
			BranchStation: route.BranchStation,
			Choices:       route.Choices,
		}, nil
	}

	if len(travelled) > 0 {
		p.StationID = travelled[len(travelled)-1]
	}
	g.publish(Event{Type: EventPlayerMoved, PlayerID: p.ID, StationID: p.StationID,
		Message: fmt.Sprintf("%s moved to %s", p.Name, g.stationName(p.StationID))})

	g.state.Phase = PhaseArrival
	arrival := g.handleArrival(p)
	g.state.Phase = PhaseTurnEnd
	return &MoveOutcome{Dice: roll, Path: travelled, Arrival: arrival}, nil
}

// handleArrival processes the square the player landed on. Destination
// arrival takes precedence over the square's own type.
func (g *GameManager) handleArrival(p *Player) *ArrivalOutcome {
	station, ok := g.state.Network.Station(p.StationID)
	if !ok {
		return &ArrivalOutcome{StationID: p.StationID, Message: "landed off the map"}
	}
	out := &ArrivalOutcome{StationID: station.ID, StationType: station.Type}

	if station.ID == g.state.DestinationID {
		g.arriveAtDestination(p, station, out)
		return out
	}

	switch station.Type {
	case StationProperty:
		for _, prop := range g.state.Market.PropertiesAt(station.ID) {
			if prop.OwnerID == "" {
				out.PropertyOffers = append(out.PropertyOffers, prop.ID)
			}
		}
		if len(out.PropertyOffers) > 0 {
			out.Message = fmt.Sprintf("%d properties are for sale at %s", len(out.PropertyOffers), station.Name)
		} else {
			out.Message = fmt.Sprintf("arrived at %s", station.Name)
		}

	case StationPlus:
		amount := g.state.Settings.PlusAmountBase.MulRatio(int64(g.state.Year), 1)
		p.Money = p.Money.Add(amount)
		out.MoneyDelta = int64(amount)
		out.Message = fmt.Sprintf("%s gained %s", p.Name, amount)
		g.publishMoney(p, out.MoneyDelta, out.Message)

	case StationMinus:
		amount := g.state.Settings.MinusAmountBase.MulRatio(int64(g.state.Year), 1)
		g.charge(p, amount)
		out.MoneyDelta = -int64(amount)
		out.Message = fmt.Sprintf("%s lost %s", p.Name, amount)
		g.publishMoney(p, out.MoneyDelta, out.Message)

	case StationNiceCard:
		out.DrewCard = g.drawCard(p, RarityC, RarityB)
		out.Message = g.drawMessage(p, out.DrewCard)

	case StationSuperCard:
		out.DrewCard = g.drawCard(p, RarityA, RarityS, RaritySS)
		out.Message = g.drawMessage(p, out.DrewCard)

	case StationCardShop:
		level := g.state.DiamondLevel()
		for _, t := range g.catalog {
			out.ShopOffers = append(out.ShopOffers, ShopItem{Name: t.Name, Price: CardPrice(t, level)})
		}
		out.Message = fmt.Sprintf("the card shop at %s is open (diamond level %d)", station.Name, level)

	case StationCardExchange:
		out.Message = g.exchangeCard(p, out)

	case StationLottery:
		if g.dice.Chance(g.state.Settings.LotteryWinChance) {
			prize := g.state.Settings.LotteryPrize
			p.Money = p.Money.Add(prize)
			out.MoneyDelta = int64(prize)
			out.Message = fmt.Sprintf("%s won the lottery: %s", p.Name, prize)
			g.publishMoney(p, out.MoneyDelta, out.Message)
		} else {
			out.Message = fmt.Sprintf("%s drew a blank lottery ticket", p.Name)
			g.publish(Event{Type: EventMessage, PlayerID: p.ID, Message: out.Message})
		}

	default:
		out.Message = fmt.Sprintf("arrived at %s", station.Name)
	}
	g.state.AppendLog(EventMessage, out.Message)
	return out
}

// arriveAtDestination pays the bonus, hands the roaming debuff to the nearest
// other player, and rolls a fresh destination. The first destination arrival
// of a game releases the debuff token into play.
func (g *GameManager) arriveAtDestination(p *Player, station *Station, out *ArrivalOutcome) {
	out.AtDestination = true
	bonus := g.state.Settings.DestinationBonusBase.MulRatio(int64(g.state.Year), 1)
	p.Money = p.Money.Add(bonus)
	out.MoneyDelta = int64(bonus)
	out.Message = fmt.Sprintf("%s reached %s and earned %s", p.Name, station.Name, bonus)
	g.publish(Event{Type: EventDestinationArrival, PlayerID: p.ID, StationID: station.ID,
		Amount: out.MoneyDelta, Message: out.Message})
	g.state.AppendLog(EventDestinationArrival, out.Message)

	if victim := g.state.NearestOtherPlayer(g.routes, p.ID); victim != nil {
		released := g.state.Debuff == nil
		if released {
			g.state.Debuff = &DebuffToken{Name: DebuffTokenName}
		} else if prev, ok := g.state.PlayerByID(g.state.Debuff.HolderID); ok {
			prev.HasDebuff = false
		}
		g.state.Debuff.HolderID = victim.ID
		g.state.Debuff.TurnsHeld = 0
		victim.HasDebuff = true
		msg := fmt.Sprintf("%s latched onto %s", g.state.Debuff.Name, victim.Name)
		if released {
			msg = fmt.Sprintf("%s appeared and latched onto %s", g.state.Debuff.Name, victim.Name)
		}
		g.publish(Event{Type: EventDebuffTransferred, PlayerID: victim.ID, Message: msg})
		g.state.AppendLog(EventDebuffTransferred, msg)
	}

	g.setNewDestination(station.ID)
}

// charge takes amount from the player's cash, booking anything beyond the
// cash on hand as debt. Debt accrues monthly interest and is repaid out of
// the year-end settlement.
func (g *GameManager) charge(p *Player, amount Money) {
	if amount > p.Money {
		p.Debt = p.Debt.Add(amount.Sub(p.Money))
		p.Money = 0
		return
	}
	p.Money = p.Money.Sub(amount)
}

// setNewDestination picks a random property station different from the
// previous destination and announces it.
func (g *GameManager) setNewDestination(previous string) {
	var candidates []string
	for _, s := range g.state.Network.StationsOfType(StationProperty) {
		if s.ID != previous {
			candidates = append(candidates, s.ID)
		}
	}
	if len(candidates) == 0 {
		candidates = g.state.Network.StationIDs()
	}
	if len(candidates) == 0 {
		return
	}
	next := candidates[g.dice.Intn(len(candidates))]
	g.state.Network.SetDestination(next)
	g.state.DestinationID = next
	msg := fmt.Sprintf("the new destination is %s", g.stationName(next))
	g.publish(Event{Type: EventDestinationChanged, StationID: next, Message: msg})
	g.state.AppendLog(EventDestinationChanged, msg)
}

// drawCard mints a random catalog card of one of the given rarities and
// hands it to the player. Returns nil when the hand cannot take it.
func (g *GameManager) drawCard(p *Player, rarities ...Rarity) *Card {
	var pool []CardTemplate
	for _, t := range g.catalog {
		for _, r := range rarities {
			if t.Rarity == r {
				pool = append(pool, t)
				break
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}
	tmpl := pool[g.dice.Intn(len(pool))]
	card := g.state.NewCardFromTemplate(tmpl)
	if err := p.AddCard(card, g.state.Settings.MaxHandCards, g.state.CardBankUnlocked()); err != nil {
		return nil
	}
	g.publish(Event{Type: EventCardDrawn, PlayerID: p.ID,
		Message: fmt.Sprintf("%s drew %s", p.Name, card.Name)})
	return card
}

func (g *GameManager) drawMessage(p *Player, c *Card) string {
	if c == nil {
		return fmt.Sprintf("%s's hand is full, no card drawn", p.Name)
	}
	return fmt.Sprintf("%s drew %s", p.Name, c.Name)
}

// exchangeCard swaps a random held card for a random catalog card.
func (g *GameManager) exchangeCard(p *Player, out *ArrivalOutcome) string {
	cards := p.AllCards()
	if len(cards) == 0 {
		return fmt.Sprintf("%s has no card to exchange", p.Name)
	}
	old := cards[g.dice.Intn(len(cards))]
	p.RemoveCard(old.ID)
	tmpl := g.catalog[g.dice.Intn(len(g.catalog))]
	fresh := g.state.NewCardFromTemplate(tmpl)
	// the slot just freed up, so this cannot fail
	p.AddCard(fresh, g.state.Settings.MaxHandCards, g.state.CardBankUnlocked())
	out.DrewCard = fresh
	msg := fmt.Sprintf("%s exchanged %s for %s", p.Name, old.Name, fresh.Name)
	g.publish(Event{Type: EventCardDrawn, PlayerID: p.ID, Message: msg})
	return msg
}

// BuyProperty buys an unowned property at the current player's station.
func (g *GameManager) BuyProperty(propertyID string) (ActionResult, error) {
	if g.state.GameOver {
		return ActionResult{}, ErrGameOver
	}
	p := g.state.Current()
	prop, ok := g.state.Market.Property(propertyID)
	if !ok {
		return ActionResult{}, fmt.Errorf("property %q does not exist", propertyID)
	}
	if prop.StationID != p.StationID {
		return ActionResult{}, fmt.Errorf("%s is not at %s's current station", prop.Name, p.Name)
	}
	return g.properties.Purchase(g.state, p.ID, propertyID), nil
}

// SellProperty sells one of the current player's properties at 70% of its
// current price. Selling is allowed anywhere on the board.
func (g *GameManager) SellProperty(propertyID string) (ActionResult, error) {
	if g.state.GameOver {
		return ActionResult{}, ErrGameOver
	}
	return g.properties.Sell(g.state, g.state.Current().ID, propertyID), nil
}

// UpgradeProperty raises a property's upgrade level for half its current
// price, boosting its yearly income.
func (g *GameManager) UpgradeProperty(propertyID string) (ActionResult, error) {
	if g.state.GameOver {
		return ActionResult{}, ErrGameOver
	}
	p := g.state.Current()
	prop, ok := g.state.Market.Property(propertyID)
	if !ok {
		return ActionResult{}, fmt.Errorf("property %q does not exist", propertyID)
	}
	if prop.OwnerID != p.ID {
		return ActionResult{Message: fmt.Sprintf("%s does not own %s", p.Name, prop.Name)}, nil
	}
	if prop.UpgradeLevel >= MaxUpgradeLevel {
		return ActionResult{Message: fmt.Sprintf("%s is already at the maximum upgrade level", prop.Name)}, nil
	}
	cost := prop.CurrentPrice.MulPercent(50)
	if p.Money < cost {
		return ActionResult{Message: fmt.Sprintf("insufficient funds to upgrade %s: costs %s", prop.Name, cost), Amount: cost}, nil
	}
	p.Money = p.Money.Sub(cost)
	prop.UpgradeLevel++
	msg := fmt.Sprintf("%s upgraded %s to level %d for %s", p.Name, prop.Name, prop.UpgradeLevel, cost)
	g.publishMoney(p, -int64(cost), msg)
	return ActionResult{Success: true, Message: msg, Amount: cost}, nil
}

// BuyCard buys a catalog card by name. The current player must be standing
// on a card shop square.
func (g *GameManager) BuyCard(templateName string) (ActionResult, error) {
	if g.state.GameOver {
		return ActionResult{}, ErrGameOver
	}
	p := g.state.Current()
	station, ok := g.state.Network.Station(p.StationID)
	if !ok || station.Type != StationCardShop {
		return ActionResult{}, fmt.Errorf("%s is not at a card shop", p.Name)
	}
	tmpl, ok := TemplateByName(g.catalog, templateName)
	if !ok {
		return ActionResult{}, fmt.Errorf("the shop does not stock %q", templateName)
	}
	price := CardPrice(tmpl, g.state.DiamondLevel())
	if p.Money < price {
		return ActionResult{Message: fmt.Sprintf("insufficient funds for %s: costs %s", tmpl.Name, price), Amount: price}, nil
	}
	card := g.state.NewCardFromTemplate(tmpl)
	if err := p.AddCard(card, g.state.Settings.MaxHandCards, g.state.CardBankUnlocked()); err != nil {
		return ActionResult{Message: err.Error()}, nil
	}
	p.Money = p.Money.Sub(price)
	msg := fmt.Sprintf("%s bought %s for %s", p.Name, card.Name, price)
	g.publishMoney(p, -int64(price), msg)
	g.publish(Event{Type: EventCardDrawn, PlayerID: p.ID, Message: msg})
	return ActionResult{Success: true, Message: msg, Amount: price}, nil
}

// EndTurn closes the current player's turn and advances the rotation. When
// the rotation wraps, the calendar moves one month, which drives market
// drift, monthly debt interest, year-end income, and game-over detection.
func (g *GameManager) EndTurn() error {
	if g.state.GameOver {
		return ErrGameOver
	}
	if g.state.Phase == PhaseSetup {
		return fmt.Errorf("%w: the game has not started", ErrWrongPhase)
	}
	p := g.state.Current()
	p.TickStatus()
	g.pending = nil

	g.state.CurrentPlayer = (g.state.CurrentPlayer + 1) % len(g.state.Players)
	g.state.Turn++
	if g.state.CurrentPlayer == 0 {
		g.advanceMonth()
		if g.state.GameOver {
			return nil
		}
	}
	g.beginTurn()
	return nil
}

// advanceMonth moves the calendar forward: market drift, monthly debt
// interest, and at month 12 the year-end settlement.
func (g *GameManager) advanceMonth() {
	g.state.Market.AdvanceMonth(g.rng)
	monthlyRate := g.state.Settings.DebtInterestAnnual / 12
	for _, p := range g.state.Players {
		if p.Debt > 0 {
			p.Debt = p.Debt.Add(p.Debt.MulFloat(monthlyRate))
		}
	}

	g.state.Month++
	if g.state.Month > 12 {
		g.settleYear()
	}
}

// settleYear pays every player their yearly property income, recomputes
// ranks, and advances the year, ending the game past the configured horizon.
func (g *GameManager) settleYear() {
	for _, p := range g.state.Players {
		income := g.properties.YearlyIncome(g.state, p.ID)
		if income > 0 {
			p.Money = p.Money.Add(income)
		}
		msg := fmt.Sprintf("year %d income for %s: %s", g.state.Year, p.Name, income)
		g.publish(Event{Type: EventYearlyIncome, PlayerID: p.ID, Amount: int64(income),
			Year: g.state.Year, Message: msg})
		g.state.AppendLog(EventYearlyIncome, msg)

		if p.Debt > 0 && p.Money > 0 {
			pay := p.Debt
			if pay > p.Money {
				pay = p.Money
			}
			p.Money = p.Money.Sub(pay)
			p.Debt = p.Debt.Sub(pay)
			g.publishMoney(p, -int64(pay), fmt.Sprintf("%s repaid %s of debt", p.Name, pay))
		}
	}
	g.state.RecomputeRanks()

	g.state.Year++
	g.state.Month = 1
	if g.state.Year > g.state.Settings.MaxYears {
		g.finishGame()
	}
}

// finishGame freezes the state and crowns the net-worth leader.
func (g *GameManager) finishGame() {
	g.state.GameOver = true
	g.state.RecomputeRanks()
	if leader := g.state.Leader(); leader != nil {
		g.state.WinnerID = leader.ID
		msg := fmt.Sprintf("game over: %s wins with a net worth of %s", leader.Name, NewMoney(leader.NetWorth(g.state.Market)))
		g.publish(Event{Type: EventGameOver, PlayerID: leader.ID, Message: msg})
		g.state.AppendLog(EventGameOver, msg)
	}
}

func (g *GameManager) stationName(id string) string {
	if s, ok := g.state.Network.Station(id); ok {
		return s.Name
	}
	return id
}

func (g *GameManager) publish(e Event) {
	if g.events != nil {
		g.events.Publish(e)
	}
}

func (g *GameManager) publishMoney(p *Player, delta int64, msg string) {
	g.publish(Event{Type: EventMoneyChanged, PlayerID: p.ID, Amount: delta, Message: msg})
	g.state.AppendLog(EventMoneyChanged, msg)
}
