package engine

import (
	"strings"
	"testing"
)

func newEffectContext(t *testing.T, seed int64) (*EffectContext, *GameState) {
	t.Helper()
	gs := newTestState(t)
	ctx := &EffectContext{
		State:      gs,
		Actor:      gs.Players[0],
		Dice:       NewDiceService(seed),
		Routes:     NewRouteCalculator(gs.Network),
		Properties: NewPropertyService(nil),
		Params:     map[string]string{},
	}
	return ctx, gs
}

func cardFromCatalog(t *testing.T, gs *GameState, name string) *Card {
	t.Helper()
	tmpl, ok := TemplateByName(DefaultCardCatalog(), name)
	if !ok {
		t.Fatalf("catalog template %q not found", name)
	}
	return gs.NewCardFromTemplate(tmpl)
}

func TestAdvanceEffectSuspendsAndResumes(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Express Ticket")
	effect, _ := EffectFor(EffectAdvance)

	// st_01 has two neighbors, so the very first step is a fork.
	res := effect.Execute(ctx)
	if !res.NeedsSelection {
		t.Fatalf("expected a selection request, got %+v", res)
	}
	if res.Selection.Kind != SelectionStation {
		t.Errorf("selection kind = %s, want station", res.Selection.Kind)
	}
	if res.Selection.ParamKey != "branch:st_01" {
		t.Errorf("param key = %s, want branch:st_01", res.Selection.ParamKey)
	}
	if res.Consumed {
		t.Error("a suspended effect must not consume the card")
	}

	ctx.Params[res.Selection.ParamKey] = "st_02"
	res = effect.Execute(ctx)
	if res.NeedsSelection {
		// deeper fork at st_03; resolve toward the loop
		ctx.Params[res.Selection.ParamKey] = "st_04"
		res = effect.Execute(ctx)
	}
	if !res.Success || !res.Moved || !res.Consumed {
		t.Fatalf("resolved advance should succeed and move, got %+v", res)
	}
	if ctx.Actor.StationID == "st_01" {
		t.Error("actor should have left the start station")
	}
}

func TestAdvanceEffectCancellation(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Express Ticket")
	effect, _ := EffectFor(EffectAdvance)

	res := effect.Execute(ctx)
	ctx.Params[res.Selection.ParamKey] = NoSelection
	res = effect.Execute(ctx)
	if res.Success || res.Consumed {
		t.Fatalf("cancelled selection must not consume the card, got %+v", res)
	}
	if ctx.Actor.StationID != "st_01" {
		t.Error("cancelled advance must not move the actor")
	}
}

func TestAdvanceToDestination(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	gs.DestinationID = "st_06"
	ctx.Card = cardFromCatalog(t, gs, "Teleport Orb")
	effect, _ := EffectFor(EffectAdvance)

	res := effect.Execute(ctx)
	if !res.Success || !res.Moved {
		t.Fatalf("teleport should succeed, got %+v", res)
	}
	if ctx.Actor.StationID != "st_06" {
		t.Errorf("actor at %s, want st_06", ctx.Actor.StationID)
	}
}

func TestDuplicateEffect(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Copy Machine")
	source := cardFromCatalog(t, gs, "Express Ticket")
	source.UsesLeft = 1
	ctx.Actor.Hand = []*Card{ctx.Card, source}
	effect, _ := EffectFor(EffectDuplicate)

	res := effect.Execute(ctx)
	if !res.NeedsSelection || res.Selection.Kind != SelectionCard {
		t.Fatalf("expected a card selection, got %+v", res)
	}
	ctx.Params[res.Selection.ParamKey] = source.ID
	res = effect.Execute(ctx)
	if !res.Success {
		t.Fatalf("duplicate failed: %s", res.Message)
	}
	if len(ctx.Actor.Hand) != 3 {
		t.Fatalf("hand size = %d, want 3", len(ctx.Actor.Hand))
	}
	copyCard := ctx.Actor.Hand[2]
	if copyCard.Name != source.Name {
		t.Errorf("copy name = %s, want %s", copyCard.Name, source.Name)
	}
	if copyCard.UsesLeft != source.MaxUses {
		t.Errorf("copy uses = %d, want the full %d", copyCard.UsesLeft, source.MaxUses)
	}
	if copyCard.ID == source.ID {
		t.Error("copy must have its own ID")
	}
}

func TestFreePropertyRespectsPriceCap(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Land Grant Deed") // cap 80M
	effect, _ := EffectFor(EffectFreeProperty)

	res := effect.Execute(ctx)
	if !res.NeedsSelection || res.Selection.Kind != SelectionProperty {
		t.Fatalf("expected a property selection, got %+v", res)
	}
	for _, id := range res.Selection.Candidates {
		p, _ := gs.Market.Property(id)
		if p.CurrentPrice > 80_000_000 {
			t.Errorf("candidate %s priced %s exceeds the cap", id, p.CurrentPrice)
		}
	}

	before := ctx.Actor.Money
	ctx.Params[res.Selection.ParamKey] = res.Selection.Candidates[0]
	res = effect.Execute(ctx)
	if !res.Success {
		t.Fatalf("grant failed: %s", res.Message)
	}
	if ctx.Actor.Money != before {
		t.Error("a grant must not cost money")
	}
	if len(ctx.Actor.PropertyIDs) != 1 {
		t.Error("actor should own the granted property")
	}
}

func TestBulkDiscountBuysWholeStation(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Clearance Sale")
	ctx.Actor.Money = 200_000_000
	effect, _ := EffectFor(EffectBulkDiscount)

	// st_01 holds prop_01 (40M) and prop_02 (80M); 30% off totals 84M
	res := effect.Execute(ctx)
	if !res.Success {
		t.Fatalf("bulk purchase failed: %s", res.Message)
	}
	if len(ctx.Actor.PropertyIDs) != 2 {
		t.Fatalf("actor owns %d properties, want 2", len(ctx.Actor.PropertyIDs))
	}
	if ctx.Actor.Money != 116_000_000 {
		t.Errorf("money = %s, want 116000000G", ctx.Actor.Money)
	}
}

func TestBulkDiscountAllOrNothing(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Clearance Sale")
	ctx.Actor.Money = 50_000_000
	effect, _ := EffectFor(EffectBulkDiscount)

	res := effect.Execute(ctx)
	if res.Success || res.Consumed {
		t.Fatalf("underfunded bulk purchase must fail without consuming, got %+v", res)
	}
	if len(ctx.Actor.PropertyIDs) != 0 {
		t.Error("no property may change hands on a failed bulk purchase")
	}
	if p, _ := gs.Market.Property("prop_01"); p.OwnerID != "" {
		t.Error("market must be untouched on failure")
	}
}

func TestCardTheft(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Pickpocket Glove")
	ctx.Actor.Hand = []*Card{ctx.Card}
	bob := gs.Players[1]
	loot := cardFromCatalog(t, gs, "Express Ticket")
	bob.Hand = []*Card{loot}
	effect, _ := EffectFor(EffectCardTheft)

	res := effect.Execute(ctx)
	if !res.NeedsSelection || res.Selection.Kind != SelectionPlayer {
		t.Fatalf("expected a player selection, got %+v", res)
	}
	ctx.Params[res.Selection.ParamKey] = bob.ID
	res = effect.Execute(ctx)
	if !res.Success {
		t.Fatalf("theft failed: %s", res.Message)
	}
	if len(bob.Hand) != 0 {
		t.Error("victim should have lost the card")
	}
	if _, ok := ctx.Actor.FindCard(loot.ID); !ok {
		t.Error("thief should hold the stolen card")
	}
}

func TestCardTheftRollbackRestoresBankCards(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Pickpocket Glove")
	// fill the hand so the stolen card has nowhere to go while the bank is
	// still locked
	ctx.Actor.Hand = []*Card{ctx.Card}
	for i := 1; i < gs.Settings.MaxHandCards; i++ {
		ctx.Actor.Hand = append(ctx.Actor.Hand, cardFromCatalog(t, gs, "Express Ticket"))
	}
	bob := gs.Players[1]
	loot := cardFromCatalog(t, gs, "Lucky Charm")
	bob.Bank = []*Card{loot}
	effect, _ := EffectFor(EffectCardTheft)

	ctx.Params["player"] = bob.ID
	res := effect.Execute(ctx)
	if res.Success || res.Consumed {
		t.Fatalf("a theft with no room must fail without consuming, got %+v", res)
	}
	if len(bob.Hand) != 0 {
		t.Error("the failed theft must not move the card into the victim's hand")
	}
	if len(bob.Bank) != 1 || bob.Bank[0].ID != loot.ID {
		t.Error("the card should be back in the victim's bank")
	}
	if _, ok := ctx.Actor.FindCard(loot.ID); ok {
		t.Error("the thief must not hold the card")
	}
}

func TestDebuffSelfTargetsActor(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Lucky Charm")
	effect, _ := EffectFor(EffectDebuff)

	res := effect.Execute(ctx)
	if res.NeedsSelection {
		t.Fatal("a self-targeting effect must not ask for a target")
	}
	if !res.Success {
		t.Fatalf("100%% success rate should never fizzle: %s", res.Message)
	}
	if ctx.Actor.Status != StatusSuperLucky || ctx.Actor.StatusTurns != 3 {
		t.Errorf("status = %s/%d, want super_lucky/3", ctx.Actor.Status, ctx.Actor.StatusTurns)
	}
}

func TestDebuffFizzleStillConsumes(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Cow Curse")
	ctx.Card.Params["success_rate"] = "0"
	bob := gs.Players[1]
	effect, _ := EffectFor(EffectDebuff)

	res := effect.Execute(ctx)
	ctx.Params[res.Selection.ParamKey] = bob.ID
	res = effect.Execute(ctx)
	if res.Success {
		t.Fatal("0%% success rate should always fizzle")
	}
	if !res.Consumed {
		t.Error("a fizzled attempt still spends the card")
	}
	if bob.Status != StatusNormal {
		t.Error("a fizzled attempt must not apply the status")
	}
}

func TestPositionSwap(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Switcheroo")
	bob := gs.Players[1]
	bob.StationID = "st_08"
	effect, _ := EffectFor(EffectPositionSwap)

	res := effect.Execute(ctx)
	ctx.Params[res.Selection.ParamKey] = bob.ID
	res = effect.Execute(ctx)
	if !res.Success {
		t.Fatalf("swap failed: %s", res.Message)
	}
	if ctx.Actor.StationID != "st_08" || bob.StationID != "st_01" {
		t.Errorf("positions after swap: actor=%s bob=%s", ctx.Actor.StationID, bob.StationID)
	}
	if res.Moved {
		t.Error("a swap must not trigger arrival processing")
	}
}

func TestDetonationPlantsBomb(t *testing.T) {
	ctx, gs := newEffectContext(t, 1)
	ctx.Card = cardFromCatalog(t, gs, "Time Bomb")
	bob := gs.Players[1]
	effect, _ := EffectFor(EffectDetonation)

	res := effect.Execute(ctx)
	ctx.Params[res.Selection.ParamKey] = bob.ID
	res = effect.Execute(ctx)
	if !res.Success {
		t.Fatalf("detonation failed: %s", res.Message)
	}
	if bob.Bomb == nil || bob.Bomb.TurnsLeft != 3 || bob.Bomb.LossPercent != 20 {
		t.Errorf("bomb = %+v, want 3 turns at 20%%", bob.Bomb)
	}

	// an already bombed player is no longer a candidate
	if ok, reason := effect.CanExecute(ctx); ok {
		t.Error("no eligible target should remain")
	} else if !strings.Contains(reason, "bomb") {
		t.Errorf("unexpected refusal reason %q", reason)
	}
}

func TestEffectCatalogCoversAllTypes(t *testing.T) {
	types := []EffectType{
		EffectAdvance, EffectDuplicate, EffectFreeProperty, EffectBulkDiscount,
		EffectCardTheft, EffectDebuff, EffectPositionSwap, EffectDetonation,
	}
	for _, typ := range types {
		if _, ok := EffectFor(typ); !ok {
			t.Errorf("no effect registered for %s", typ)
		}
	}
	if _, ok := EffectFor("bogus"); ok {
		t.Error("unknown effect types must not resolve")
	}
}
