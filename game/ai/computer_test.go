package ai

import (
	"testing"

	"github.com/railfortune/railfortune/game/engine"
)

func newGame(t *testing.T) *engine.GameState {
	t.Helper()
	specs := []engine.PlayerSpec{
		{Name: "Alice"},
		{Name: "Bob", Computer: true},
	}
	gs, err := engine.BuildGameState("game_ai_test", engine.DefaultGameConfig(), specs)
	if err != nil {
		t.Fatalf("BuildGameState: %v", err)
	}
	return gs
}

func TestParseDefaults(t *testing.T) {
	if got := ParseDifficulty("bogus"); got != DifficultyNormal {
		t.Errorf("unknown difficulty = %s, want normal", got)
	}
	if got := ParseDifficulty("Strong"); got != DifficultyStrong {
		t.Errorf("case-insensitive parse failed: %s", got)
	}
	if got := ParseStrategy(""); got != StrategyBalanced {
		t.Errorf("empty strategy = %s, want balanced", got)
	}
	if got := ParseStrategy("speedster"); got != StrategySpeedster {
		t.Errorf("strategy parse failed: %s", got)
	}
}

func TestRiskToleranceByStrategy(t *testing.T) {
	agg := New("p", "strong", "aggressive", 1)
	con := New("p", "strong", "conservative", 1)
	if agg.RiskTolerance() <= con.RiskTolerance() {
		t.Errorf("aggressive risk %d should exceed conservative %d",
			agg.RiskTolerance(), con.RiskTolerance())
	}
}

func TestEvaluatePropertyScoring(t *testing.T) {
	gs := newGame(t)
	bob := New(gs.Players[1].ID, "strong", "balanced", 1)

	if got := bob.EvaluateProperty(gs, "missing"); got != 0 {
		t.Errorf("unknown property scored %d", got)
	}

	// 80M price against 100M money is affordable but heavy
	affordable := bob.EvaluateProperty(gs, "prop_02")
	if affordable <= 0 {
		t.Error("an affordable high-income property should score above zero")
	}

	gs.Players[1].Money = 10_000_000
	if got := bob.EvaluateProperty(gs, "prop_02"); got != 0 {
		t.Errorf("an unaffordable property scored %d, want 0", got)
	}
}

func TestEvaluatePropertyMonopolyBonus(t *testing.T) {
	gs := newGame(t)
	bobPlayer := gs.Players[1]
	bob := New(bobPlayer.ID, "strong", "balanced", 1)
	svc := engine.NewPropertyService(nil)

	withoutBonus := bob.EvaluateProperty(gs, "prop_01")
	if err := svc.TransferOwnership(gs, "prop_02", bobPlayer.ID); err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	withBonus := bob.EvaluateProperty(gs, "prop_01")
	if withBonus <= withoutBonus {
		t.Errorf("completing a monopoly should raise the score: %d -> %d", withoutBonus, withBonus)
	}
}

func TestSelectPropertiesToBuyMonopolyOverride(t *testing.T) {
	gs := newGame(t)
	bobPlayer := gs.Players[1]
	bobPlayer.Money = 50_000_000
	bob := New(bobPlayer.ID, "strong", "balanced", 1)
	svc := engine.NewPropertyService(nil)

	// Bob owns one of the two Ferryport properties; the other (30M) would
	// completes the monopoly and must be picked over the cheaper dairy.
	if err := svc.TransferOwnership(gs, "prop_03", bobPlayer.ID); err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	picks := bob.SelectPropertiesToBuy(gs, []string{"prop_09", "prop_04"})
	if len(picks) == 0 || picks[0] != "prop_04" {
		t.Errorf("picks = %v, want prop_04 first", picks)
	}
}

func TestSelectPropertiesToBuySkipsOwned(t *testing.T) {
	gs := newGame(t)
	bob := New(gs.Players[1].ID, "strong", "balanced", 1)
	svc := engine.NewPropertyService(nil)
	svc.TransferOwnership(gs, "prop_05", gs.Players[0].ID)

	for _, pick := range bob.SelectPropertiesToBuy(gs, []string{"prop_05"}) {
		if pick == "prop_05" {
			t.Error("an owned property must never be picked")
		}
	}
}

func TestWeakDifficultySometimesPassesOnTheTopPick(t *testing.T) {
	gs := newGame(t)
	gs.Players[1].Money = 900_000_000
	weak := New(gs.Players[1].ID, "weak", "balanced", 7)

	skipped := false
	for i := 0; i < 200 && !skipped; i++ {
		picks := weak.SelectPropertiesToBuy(gs, []string{"prop_07"})
		if len(picks) == 0 {
			skipped = true
		}
	}
	if !skipped {
		t.Error("a weak player should occasionally pass on the best pick")
	}

	strong := New(gs.Players[1].ID, "strong", "balanced", 7)
	for i := 0; i < 200; i++ {
		if picks := strong.SelectPropertiesToBuy(gs, []string{"prop_07"}); len(picks) == 0 {
			t.Fatal("a strong player must always take a clearly good pick")
		}
	}
}

func TestSelectPropertiesToSellProtectsMonopolies(t *testing.T) {
	gs := newGame(t)
	bobPlayer := gs.Players[1]
	bob := New(bobPlayer.ID, "strong", "balanced", 1)
	svc := engine.NewPropertyService(nil)

	// monopoly at Centralia plus a standalone dairy
	svc.TransferOwnership(gs, "prop_01", bobPlayer.ID)
	svc.TransferOwnership(gs, "prop_02", bobPlayer.ID)
	svc.TransferOwnership(gs, "prop_09", bobPlayer.ID)

	picks := bob.SelectPropertiesToSell(gs, 5_000_000)
	if len(picks) == 0 || picks[0] != "prop_09" {
		t.Errorf("picks = %v, want the standalone prop_09 first", picks)
	}

	// a huge need eventually breaks into the monopoly too
	picks = bob.SelectPropertiesToSell(gs, 900_000_000)
	if len(picks) != 3 {
		t.Errorf("a large need should liquidate everything, got %v", picks)
	}
	if picks[0] != "prop_09" {
		t.Errorf("standalone holdings must go first, got %v", picks)
	}
}

func TestPriceAppetiteByStrategy(t *testing.T) {
	gs := newGame(t)
	bobPlayer := gs.Players[1]
	bobPlayer.Money = 100_000_000
	agg := New(bobPlayer.ID, "strong", "aggressive", 1)
	con := New(bobPlayer.ID, "strong", "conservative", 1)

	// prop_02 is the expensive high-yield pick, prop_03 the cheap one
	if agg.EvaluateProperty(gs, "prop_02") <= agg.EvaluateProperty(gs, "prop_03") {
		t.Error("an aggressive buyer should rank the pricey high-yield holding first")
	}
	if con.EvaluateProperty(gs, "prop_03") <= con.EvaluateProperty(gs, "prop_02") {
		t.Error("a conservative buyer should rank the cheap holding first")
	}
}

func TestWeakDifficultyBuysMarginalHoldings(t *testing.T) {
	gs := newGame(t)
	gs.Players[1].Money = 20_000_000
	// prop_05 scores below the normal purchase gate at this bankroll
	strong := New(gs.Players[1].ID, "strong", "balanced", 5)
	for i := 0; i < 50; i++ {
		if picks := strong.SelectPropertiesToBuy(gs, []string{"prop_05"}); len(picks) != 0 {
			t.Fatal("a strong player must pass on a marginal holding")
		}
	}

	weak := New(gs.Players[1].ID, "weak", "balanced", 5)
	bought := false
	for i := 0; i < 200 && !bought; i++ {
		bought = len(weak.SelectPropertiesToBuy(gs, []string{"prop_05"})) > 0
	}
	if !bought {
		t.Error("a weak player should settle for a marginal holding")
	}
}

func TestEvaluateRoutePrefersCloserStations(t *testing.T) {
	gs := newGame(t)
	gs.DestinationID = "st_06"
	routes := engine.NewRouteCalculator(gs.Network)
	bob := New(gs.Players[1].ID, "strong", "balanced", 1)

	near := bob.EvaluateRoute(gs, routes, "st_04")
	far := bob.EvaluateRoute(gs, routes, "st_13")
	if near <= far {
		t.Errorf("closer station should score higher: near=%d far=%d", near, far)
	}
	if got := bob.EvaluateRoute(gs, routes, "st_06"); got != 100 {
		t.Errorf("standing on the destination = %d, want 100", got)
	}
}

func TestDecideBranchHeadsForDestination(t *testing.T) {
	gs := newGame(t)
	gs.DestinationID = "st_06"
	routes := engine.NewRouteCalculator(gs.Network)
	bob := New(gs.Players[1].ID, "strong", "speedster", 1)

	// from the st_03 fork, st_04 leads toward Oakvale, st_13 away
	if got := bob.DecideBranch(gs, routes, []string{"st_13", "st_04"}); got != "st_04" {
		t.Errorf("branch = %s, want st_04", got)
	}
	if got := bob.DecideBranch(gs, routes, nil); got != "" {
		t.Errorf("no choices should yield empty, got %q", got)
	}
}

func TestEvaluateCardMovementScalesWithDistance(t *testing.T) {
	gs := newGame(t)
	gs.DestinationID = "st_16"
	routes := engine.NewRouteCalculator(gs.Network)
	bobPlayer := gs.Players[1]
	bob := New(bobPlayer.ID, "strong", "balanced", 1)

	tmpl, _ := engine.TemplateByName(engine.DefaultCardCatalog(), "Express Ticket")
	card := gs.NewCardFromTemplate(tmpl)

	far := bob.EvaluateCard(gs, routes, card)
	bobPlayer.StationID = "st_15" // one square out
	near := bob.EvaluateCard(gs, routes, card)
	if far <= near {
		t.Errorf("movement card should score higher far away: far=%d near=%d", far, near)
	}
}

func TestSelectCardToBuy(t *testing.T) {
	gs := newGame(t)
	catalog := engine.DefaultCardCatalog()
	offers := []engine.ShopItem{}
	for _, tmpl := range catalog {
		offers = append(offers, engine.ShopItem{Name: tmpl.Name, Price: engine.CardPrice(tmpl, 1)})
	}
	bobPlayer := gs.Players[1]

	speedster := New(bobPlayer.ID, "strong", "speedster", 1)
	name := speedster.SelectCardToBuy(gs, catalog, offers)
	tmpl, ok := engine.TemplateByName(catalog, name)
	if !ok || tmpl.Type != engine.CardMovement {
		t.Errorf("speedster bought %q, want a movement card", name)
	}

	// conservative threshold sits above every shop score
	conservative := New(bobPlayer.ID, "strong", "conservative", 1)
	if name := conservative.SelectCardToBuy(gs, catalog, offers); name != "" {
		t.Errorf("conservative bought %q, want a pass", name)
	}

	bobPlayer.Money = 1_000_000
	if name := speedster.SelectCardToBuy(gs, catalog, offers); name != "" {
		t.Errorf("bought %q with no budget headroom", name)
	}
}

func TestResolveSelectionKinds(t *testing.T) {
	gs := newGame(t)
	routes := engine.NewRouteCalculator(gs.Network)
	gs.DestinationID = "st_06"
	alice, bobPlayer := gs.Players[0], gs.Players[1]
	alice.Money = 500_000_000
	bob := New(bobPlayer.ID, "strong", "balanced", 1)

	got := bob.ResolveSelection(gs, routes, &engine.SelectionRequest{
		Kind: engine.SelectionPlayer, Candidates: []string{alice.ID},
	})
	if got != alice.ID {
		t.Errorf("player selection = %s, want %s", got, alice.ID)
	}

	got = bob.ResolveSelection(gs, routes, &engine.SelectionRequest{
		Kind: engine.SelectionProperty, Candidates: []string{"prop_05", "prop_02"},
	})
	if got != "prop_02" {
		t.Errorf("property selection = %s, want the priciest prop_02", got)
	}

	cheap := gs.NewCardFromTemplate(engine.DefaultCardCatalog()[0])  // C rarity
	rare := gs.NewCardFromTemplate(engine.DefaultCardCatalog()[2])   // S rarity
	bobPlayer.Hand = []*engine.Card{cheap, rare}
	got = bob.ResolveSelection(gs, routes, &engine.SelectionRequest{
		Kind: engine.SelectionCard, Candidates: []string{cheap.ID, rare.ID},
	})
	if got != rare.ID {
		t.Errorf("card selection = %s, want the rarest %s", got, rare.ID)
	}

	got = bob.ResolveSelection(gs, routes, &engine.SelectionRequest{
		Kind: engine.SelectionStation, Candidates: []string{"st_13", "st_04"},
	})
	if got != "st_04" {
		t.Errorf("station selection = %s, want st_04", got)
	}

	if got := bob.ResolveSelection(gs, routes, nil); got != engine.NoSelection {
		t.Errorf("nil request should yield no selection, got %q", got)
	}
}

func TestTakeTurnSellsHoldingsToCoverDebt(t *testing.T) {
	gs := newGame(t)
	m := engine.NewGameManager(gs, nil, 33, nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	alicePlayer := gs.Players[0]
	svc := engine.NewPropertyService(nil)
	svc.TransferOwnership(gs, "prop_05", alicePlayer.ID)
	svc.TransferOwnership(gs, "prop_09", alicePlayer.ID)
	alicePlayer.Money = 1_000_000
	alicePlayer.Debt = 500_000_000

	alice := New(alicePlayer.ID, "strong", "balanced", 1)
	if err := alice.TakeTurn(m); err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}

	if len(alicePlayer.PropertyIDs) != 0 {
		t.Errorf("a deep debt should liquidate every holding, still owns %v", alicePlayer.PropertyIDs)
	}
}

func TestTakeTurnPlaysACompleteTurn(t *testing.T) {
	gs := newGame(t)
	m := engine.NewGameManager(gs, nil, 21, nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	alice := New(gs.Players[0].ID, "normal", "balanced", 1)
	bob := New(gs.Players[1].ID, "strong", "aggressive", 2)

	if err := bob.TakeTurn(m); err == nil {
		t.Fatal("taking a turn out of order must fail")
	}

	players := map[string]*ComputerAI{alice.PlayerID: alice, bob.PlayerID: bob}
	for i := 0; i < 48 && !gs.GameOver; i++ {
		actor := players[gs.Current().ID]
		if err := actor.TakeTurn(m); err != nil {
			t.Fatalf("turn %d (%s): %v", i, actor.PlayerID, err)
		}
	}

	if gs.Turn < 48 && !gs.GameOver {
		t.Errorf("48 turns should have been played, at turn %d", gs.Turn)
	}
	if gs.Month == 1 && gs.Year == 1 {
		t.Error("the calendar should have advanced over two full years of turns")
	}
}
