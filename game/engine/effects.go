package engine

import (
	"fmt"
	"strconv"
)

// SelectionKind identifies what an effect is asking the caller to choose.
type SelectionKind string

const (
	SelectionPlayer   SelectionKind = "player"
	SelectionCard     SelectionKind = "card"
	SelectionProperty SelectionKind = "property"
	SelectionStation  SelectionKind = "station"
)

// SelectionRequest describes an externally resolved choice an effect needs.
// The caller places the chosen candidate ID into the context params under
// ParamKey and re-invokes the effect. Supplying NoSelection cancels.
type SelectionRequest struct {
	Kind       SelectionKind `json:"kind"`
	Prompt     string        `json:"prompt"`
	Candidates []string      `json:"candidates"`
	ParamKey   string        `json:"param_key"`
}

// NoSelection is the resolution value meaning "none selected" / cancelled.
const NoSelection = "none"

// EffectResult is the outcome of executing a card effect.
//
// NeedsSelection is the suspension half of the two-phase protocol: the
// effect has not run yet and must be re-invoked with the selection resolved.
// Consumed reports whether the card charge was spent; probabilistic failures
// consume the card, cancellations do not. AllowsContinuation marks a moving
// effect that leaves the turn's dice roll available after arrival.
type EffectResult struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	NeedsSelection     bool              `json:"needs_selection,omitempty"`
	Selection          *SelectionRequest `json:"selection,omitempty"`
	Consumed           bool              `json:"consumed,omitempty"`
	Moved              bool              `json:"moved,omitempty"`
	AllowsContinuation bool              `json:"allows_continuation,omitempty"`
}

// EffectContext carries everything an effect may read or mutate. It is built
// by the game manager per invocation; effects never reach for globals.
type EffectContext struct {
	State      *GameState
	Actor      *Player
	Card       *Card
	Dice       *DiceService
	Routes     *RouteCalculator
	Properties *PropertyService
	Events     EventSink
	Params     map[string]string
}

// Param reads a parameter, preferring caller-supplied resolutions over the
// card's own effect parameters.
func (ctx *EffectContext) Param(key string) (string, bool) {
	if v, ok := ctx.Params[key]; ok {
		return v, true
	}
	if ctx.Card != nil {
		if v, ok := ctx.Card.Params[key]; ok {
			return v, true
		}
	}
	return "", false
}

func (ctx *EffectContext) intParam(key string, fallback int) int {
	v, ok := ctx.Param(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (ctx *EffectContext) publish(e Event) {
	if ctx.Events != nil {
		ctx.Events.Publish(e)
	}
}

// CardEffect is one entry in the effect catalog.
type CardEffect interface {
	// CanExecute checks restrictions and target availability without
	// mutating anything. The string is a human-readable refusal reason.
	CanExecute(ctx *EffectContext) (bool, string)
	// Execute runs the effect, or suspends with a selection request.
	Execute(ctx *EffectContext) EffectResult
}

var effectCatalog = map[EffectType]CardEffect{
	EffectAdvance:      advanceEffect{},
	EffectDuplicate:    duplicateEffect{},
	EffectFreeProperty: freePropertyEffect{},
	EffectBulkDiscount: bulkDiscountEffect{},
	EffectCardTheft:    cardTheftEffect{},
	EffectDebuff:       debuffEffect{},
	EffectPositionSwap: positionSwapEffect{},
	EffectDetonation:   detonationEffect{},
}

// EffectFor resolves an effect tag against the catalog.
func EffectFor(t EffectType) (CardEffect, bool) {
	e, ok := effectCatalog[t]
	return e, ok
}

func needSelection(kind SelectionKind, prompt string, candidates []string, key string) EffectResult {
	return EffectResult{
		NeedsSelection: true,
		Message:        prompt,
		Selection: &SelectionRequest{
			Kind:       kind,
			Prompt:     prompt,
			Candidates: candidates,
			ParamKey:   key,
		},
	}
}

func cancelledResult(msg string) EffectResult {
	return EffectResult{Success: false, Consumed: false, Message: msg}
}

// resolveSelection implements the shared "read back or suspend" step: it
// returns the resolved candidate, or a suspension/cancellation result.
func resolveSelection(ctx *EffectContext, kind SelectionKind, prompt string, candidates []string, key string) (string, *EffectResult) {
	if len(candidates) == 0 {
		r := cancelledResult("no valid target available")
		return "", &r
	}
	choice, ok := ctx.Params[key]
	if !ok {
		ctx.publish(Event{Type: EventSelectionRequested, PlayerID: ctx.Actor.ID, Message: prompt})
		r := needSelection(kind, prompt, candidates, key)
		return "", &r
	}
	if choice == "" || choice == NoSelection {
		r := cancelledResult("no selection was made")
		return "", &r
	}
	for _, c := range candidates {
		if c == choice {
			return choice, nil
		}
	}
	r := cancelledResult(fmt.Sprintf("%q is not a valid choice", choice))
	return "", &r
}

// advanceEffect moves the actor along the rails, either a fixed number of
// steps or straight to the destination. Branch points suspend with a station
// selection keyed per branch, so multi-branch movements resolve one fork at
// a time.
type advanceEffect struct{}

func (advanceEffect) CanExecute(ctx *EffectContext) (bool, string) {
	if v, _ := ctx.Param("to_destination"); v == "true" {
		if ctx.State.DestinationID == "" {
			return false, "no destination is set"
		}
		if len(ctx.Routes.ShortestPath(ctx.Actor.StationID, ctx.State.DestinationID)) == 0 {
			return false, "the destination is unreachable from here"
		}
		return true, ""
	}
	if ctx.intParam("steps", 0) < 1 {
		return false, "the card has no movement steps configured"
	}
	return true, ""
}

func (advanceEffect) Execute(ctx *EffectContext) EffectResult {
	if v, _ := ctx.Param("to_destination"); v == "true" {
		path := ctx.Routes.ShortestPath(ctx.Actor.StationID, ctx.State.DestinationID)
		if len(path) == 0 {
			return cancelledResult("the destination is unreachable from here")
		}
		ctx.Actor.StationID = path[len(path)-1]
		return EffectResult{
			Success:  true,
			Consumed: true,
			Moved:    true,
			Message:  fmt.Sprintf("%s warped to the destination", ctx.Actor.Name),
		}
	}

	steps := ctx.intParam("steps", 0)
	route, err := ctx.Routes.StepwiseRoute(ctx.Actor.StationID, steps)
	if err != nil {
		return cancelledResult(err.Error())
	}
	travelled := route.Path
	for route.NeedsChoice {
		key := "branch:" + route.BranchStation
		choice, suspend := resolveSelection(ctx, SelectionStation,
			fmt.Sprintf("choose a direction at %s", route.BranchStation),
			route.Choices, key)
		if suspend != nil {
			return *suspend
		}
		route, err = ctx.Routes.ResumeRoute(route.BranchStation, choice, route.RemainingSteps)
		if err != nil {
			return cancelledResult(err.Error())
		}
		travelled = append(travelled, route.Path...)
	}
	final := ctx.Actor.StationID
	if len(travelled) > 0 {
		final = travelled[len(travelled)-1]
	}
	ctx.Actor.StationID = final
	return EffectResult{
		Success:            true,
		Consumed:           true,
		Moved:              true,
		AllowsContinuation: true,
		Message:            fmt.Sprintf("%s advanced %d squares", ctx.Actor.Name, len(travelled)),
	}
}

// duplicateEffect copies one of the actor's other cards with fresh uses.
type duplicateEffect struct{}

func (duplicateEffect) CanExecute(ctx *EffectContext) (bool, string) {
	for _, c := range ctx.Actor.AllCards() {
		if c.ID != ctx.Card.ID {
			return true, ""
		}
	}
	return false, "no other card to duplicate"
}

func (duplicateEffect) Execute(ctx *EffectContext) EffectResult {
	var candidates []string
	for _, c := range ctx.Actor.AllCards() {
		if c.ID != ctx.Card.ID {
			candidates = append(candidates, c.ID)
		}
	}
	choice, suspend := resolveSelection(ctx, SelectionCard, "choose a card to duplicate", candidates, "card")
	if suspend != nil {
		return *suspend
	}
	source, _ := ctx.Actor.FindCard(choice)
	if source == nil {
		return cancelledResult("the chosen card is gone")
	}
	copyCard := ctx.State.NewCardFromTemplate(CardTemplate{
		Name: source.Name, Type: source.Type, Rarity: source.Rarity,
		MaxUses: source.MaxUses, Restriction: source.Restriction,
		RestrictionYear: source.RestrictionYear, Effect: source.Effect,
		Params: source.Params,
	})
	if err := ctx.Actor.AddCard(copyCard, ctx.State.Settings.MaxHandCards, ctx.State.CardBankUnlocked()); err != nil {
		return cancelledResult(err.Error())
	}
	return EffectResult{
		Success:  true,
		Consumed: true,
		Message:  fmt.Sprintf("duplicated %s", source.Name),
	}
}

// freePropertyEffect grants an unowned property without payment, within the
// card's configured price cap.
type freePropertyEffect struct{}

func (e freePropertyEffect) CanExecute(ctx *EffectContext) (bool, string) {
	if len(e.candidates(ctx)) == 0 {
		return false, "no eligible unowned property"
	}
	return true, ""
}

func (e freePropertyEffect) Execute(ctx *EffectContext) EffectResult {
	choice, suspend := resolveSelection(ctx, SelectionProperty, "choose a property to receive", e.candidates(ctx), "property")
	if suspend != nil {
		return *suspend
	}
	prop, _ := ctx.State.Market.Property(choice)
	if prop == nil || prop.OwnerID != "" {
		return cancelledResult("the chosen property is no longer available")
	}
	if err := ctx.Properties.TransferOwnership(ctx.State, choice, ctx.Actor.ID); err != nil {
		return cancelledResult(err.Error())
	}
	return EffectResult{
		Success:  true,
		Consumed: true,
		Message:  fmt.Sprintf("%s received %s for free", ctx.Actor.Name, prop.Name),
	}
}

func (freePropertyEffect) candidates(ctx *EffectContext) []string {
	maxPrice := MaxMoney
	if v, ok := ctx.Param("max_price"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			maxPrice = NewMoney(n)
		}
	}
	var out []string
	for _, p := range ctx.State.Market.UnownedProperties() {
		if p.CurrentPrice <= maxPrice {
			out = append(out, p.ID)
		}
	}
	return out
}

// bulkDiscountEffect buys every unowned property at the actor's current
// station at a discount, all-or-nothing.
type bulkDiscountEffect struct{}

func (bulkDiscountEffect) CanExecute(ctx *EffectContext) (bool, string) {
	for _, p := range ctx.State.Market.PropertiesAt(ctx.Actor.StationID) {
		if p.OwnerID == "" {
			return true, ""
		}
	}
	return false, "no unowned property at the current station"
}

func (bulkDiscountEffect) Execute(ctx *EffectContext) EffectResult {
	discount := int64(ctx.intParam("discount", 30))
	var targets []*Property
	var total Money
	for _, p := range ctx.State.Market.PropertiesAt(ctx.Actor.StationID) {
		if p.OwnerID == "" {
			targets = append(targets, p)
			total = total.Add(p.CurrentPrice.MulPercent(100 - discount))
		}
	}
	if len(targets) == 0 {
		return cancelledResult("no unowned property at the current station")
	}
	if ctx.Actor.Money < total {
		return cancelledResult(fmt.Sprintf("insufficient funds: the bulk purchase costs %s", total))
	}
	for _, p := range targets {
		ctx.Properties.PurchaseAt(ctx.State, ctx.Actor.ID, p.ID, p.CurrentPrice.MulPercent(100-discount))
	}
	return EffectResult{
		Success:  true,
		Consumed: true,
		Message:  fmt.Sprintf("bought %d properties at %d%% off for %s", len(targets), discount, total),
	}
}

// cardTheftEffect steals a random card from a chosen player.
type cardTheftEffect struct{}

func (e cardTheftEffect) CanExecute(ctx *EffectContext) (bool, string) {
	if len(e.candidates(ctx)) == 0 {
		return false, "no other player holds a card"
	}
	return true, ""
}

func (e cardTheftEffect) Execute(ctx *EffectContext) EffectResult {
	choice, suspend := resolveSelection(ctx, SelectionPlayer, "choose a player to steal from", e.candidates(ctx), "player")
	if suspend != nil {
		return *suspend
	}
	target, _ := ctx.State.PlayerByID(choice)
	cards := target.AllCards()
	if len(cards) == 0 {
		return cancelledResult(fmt.Sprintf("%s has no cards left", target.Name))
	}
	stolen := cards[ctx.Dice.Intn(len(cards))]
	fromBank := false
	for _, c := range target.Bank {
		if c.ID == stolen.ID {
			fromBank = true
			break
		}
	}
	target.RemoveCard(stolen.ID)
	if err := ctx.Actor.AddCard(stolen, ctx.State.Settings.MaxHandCards, ctx.State.CardBankUnlocked()); err != nil {
		// put it back where it came from to keep the operation atomic
		if fromBank {
			target.Bank = append(target.Bank, stolen)
		} else {
			target.Hand = append(target.Hand, stolen)
		}
		return cancelledResult(err.Error())
	}
	return EffectResult{
		Success:  true,
		Consumed: true,
		Message:  fmt.Sprintf("%s stole %s from %s", ctx.Actor.Name, stolen.Name, target.Name),
	}
}

func (cardTheftEffect) candidates(ctx *EffectContext) []string {
	var out []string
	for _, p := range ctx.State.OtherPlayers(ctx.Actor.ID) {
		if len(p.AllCards()) > 0 {
			out = append(out, p.ID)
		}
	}
	return out
}

// debuffEffect applies a duration-bearing status to a target after a success
// roll. A failed roll still consumes the card. With the "self" parameter the
// effect targets the actor without a selection (used for buffs).
type debuffEffect struct{}

func (debuffEffect) CanExecute(ctx *EffectContext) (bool, string) {
	if v, _ := ctx.Param("self"); v == "true" {
		return true, ""
	}
	if len(ctx.State.OtherPlayers(ctx.Actor.ID)) == 0 {
		return false, "no other player to target"
	}
	return true, ""
}

func (debuffEffect) Execute(ctx *EffectContext) EffectResult {
	var target *Player
	if v, _ := ctx.Param("self"); v == "true" {
		target = ctx.Actor
	} else {
		var candidates []string
		for _, p := range ctx.State.OtherPlayers(ctx.Actor.ID) {
			candidates = append(candidates, p.ID)
		}
		choice, suspend := resolveSelection(ctx, SelectionPlayer, "choose a player to target", candidates, "player")
		if suspend != nil {
			return *suspend
		}
		target, _ = ctx.State.PlayerByID(choice)
	}

	statusName, _ := ctx.Param("status")
	status, ok := parseStatus(statusName)
	if !ok {
		return cancelledResult(fmt.Sprintf("unknown status %q", statusName))
	}
	turns := ctx.intParam("turns", 3)
	rate := ctx.intParam("success_rate", 85)

	if !ctx.Dice.Chance(float64(rate) / 100) {
		return EffectResult{
			Success:  false,
			Consumed: true,
			Message:  fmt.Sprintf("the attempt on %s failed", target.Name),
		}
	}

	target.ApplyStatus(status, turns)
	ctx.publish(Event{
		Type:     EventStatusChanged,
		PlayerID: target.ID,
		Message:  fmt.Sprintf("%s is now %s for %d turns", target.Name, status, turns),
	})
	return EffectResult{
		Success:  true,
		Consumed: true,
		Message:  fmt.Sprintf("%s is now %s for %d turns", target.Name, status, turns),
	}
}

// positionSwapEffect trades places with a chosen player. The swap relocates
// both players without triggering arrival processing.
type positionSwapEffect struct{}

func (positionSwapEffect) CanExecute(ctx *EffectContext) (bool, string) {
	if len(ctx.State.OtherPlayers(ctx.Actor.ID)) == 0 {
		return false, "no other player to swap with"
	}
	return true, ""
}

func (positionSwapEffect) Execute(ctx *EffectContext) EffectResult {
	var candidates []string
	for _, p := range ctx.State.OtherPlayers(ctx.Actor.ID) {
		candidates = append(candidates, p.ID)
	}
	choice, suspend := resolveSelection(ctx, SelectionPlayer, "choose a player to swap positions with", candidates, "player")
	if suspend != nil {
		return *suspend
	}
	target, _ := ctx.State.PlayerByID(choice)
	ctx.Actor.StationID, target.StationID = target.StationID, ctx.Actor.StationID
	return EffectResult{
		Success:  true,
		Consumed: true,
		Message:  fmt.Sprintf("%s swapped places with %s", ctx.Actor.Name, target.Name),
	}
}

// detonationEffect plants a delayed bomb on a target player. The turn engine
// counts it down and detonates it at zero.
type detonationEffect struct{}

func (e detonationEffect) CanExecute(ctx *EffectContext) (bool, string) {
	if len(e.candidates(ctx)) == 0 {
		return false, "no eligible target without a bomb"
	}
	return true, ""
}

func (e detonationEffect) Execute(ctx *EffectContext) EffectResult {
	choice, suspend := resolveSelection(ctx, SelectionPlayer, "choose a player to plant the bomb on", e.candidates(ctx), "player")
	if suspend != nil {
		return *suspend
	}
	target, _ := ctx.State.PlayerByID(choice)
	target.Bomb = &DelayedBomb{
		TurnsLeft:   ctx.intParam("countdown", 3),
		LossPercent: ctx.intParam("loss_percent", 20),
	}
	return EffectResult{
		Success:  true,
		Consumed: true,
		Message:  fmt.Sprintf("a bomb is ticking on %s (%d turns)", target.Name, target.Bomb.TurnsLeft),
	}
}

func (detonationEffect) candidates(ctx *EffectContext) []string {
	var out []string
	for _, p := range ctx.State.OtherPlayers(ctx.Actor.ID) {
		if p.Bomb == nil {
			out = append(out, p.ID)
		}
	}
	return out
}

func parseStatus(name string) (PlayerStatus, bool) {
	switch PlayerStatus(name) {
	case StatusCow, StatusUnlucky, StatusSuperLucky, StatusSealed, StatusNormal:
		return PlayerStatus(name), true
	default:
		return StatusNormal, false
	}
}
