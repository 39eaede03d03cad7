package engine

import (
	"reflect"
	"testing"
)

// testNetwork builds a line a-b-c-d-e with a spur c-f, so c is a branch
// point and e and f are dead ends.
func testNetwork(t *testing.T) *StationNetwork {
	t.Helper()
	n := NewStationNetwork()
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		if err := n.AddStation(&Station{ID: id, Name: id, Type: StationProperty}); err != nil {
			t.Fatalf("AddStation(%s): %v", id, err)
		}
	}
	edges := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"c", "f"}}
	for _, e := range edges {
		if err := n.Connect(e[0], e[1]); err != nil {
			t.Fatalf("Connect(%s, %s): %v", e[0], e[1], err)
		}
	}
	return n
}

func TestShortestPath(t *testing.T) {
	rc := NewRouteCalculator(testNetwork(t))

	tests := []struct {
		name string
		from string
		to   string
		want []string
	}{
		{"simple path", "a", "d", []string{"a", "b", "c", "d"}},
		{"same station", "a", "a", []string{"a"}},
		{"across the branch", "e", "f", []string{"e", "d", "c", "f"}},
		{"adjacent", "b", "c", []string{"b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rc.ShortestPath(tt.from, tt.to); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ShortestPath(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}

	if got := rc.ShortestPath("a", "missing"); got != nil {
		t.Errorf("path to unknown station should be nil, got %v", got)
	}
}

func TestDistanceToDestination(t *testing.T) {
	rc := NewRouteCalculator(testNetwork(t))
	if got := rc.DistanceToDestination("a", "e"); got != 4 {
		t.Errorf("distance a->e = %d, want 4", got)
	}
	if got := rc.DistanceToDestination("a", "a"); got != 0 {
		t.Errorf("distance a->a = %d, want 0", got)
	}
	if got := rc.DistanceToDestination("a", "missing"); got != UnreachableDistance {
		t.Errorf("unreachable distance = %d, want %d", got, UnreachableDistance)
	}
}

func TestStepwiseRouteAutoAdvance(t *testing.T) {
	rc := NewRouteCalculator(testNetwork(t))

	// a has a single neighbor, and b has a single forward neighbor, so the
	// walk advances without choices until it reaches the fork at c.
	route, err := rc.StepwiseRoute("a", 2)
	if err != nil {
		t.Fatalf("StepwiseRoute: %v", err)
	}
	if route.NeedsChoice {
		t.Fatalf("two steps from a should not need a choice, stopped at %s", route.BranchStation)
	}
	if !reflect.DeepEqual(route.Path, []string{"b", "c"}) {
		t.Errorf("path = %v, want [b c]", route.Path)
	}
}

func TestStepwiseRouteSuspendsAtBranch(t *testing.T) {
	rc := NewRouteCalculator(testNetwork(t))

	route, err := rc.StepwiseRoute("a", 4)
	if err != nil {
		t.Fatalf("StepwiseRoute: %v", err)
	}
	if !route.NeedsChoice {
		t.Fatal("walking through c should suspend for a branch choice")
	}
	if route.BranchStation != "c" {
		t.Errorf("branch station = %s, want c", route.BranchStation)
	}
	if route.RemainingSteps != 2 {
		t.Errorf("remaining steps = %d, want 2", route.RemainingSteps)
	}
	wantChoices := []string{"d", "f"}
	if !reflect.DeepEqual(route.Choices, wantChoices) {
		t.Errorf("choices = %v, want %v", route.Choices, wantChoices)
	}

	resumed, err := rc.ResumeRoute("c", "d", route.RemainingSteps)
	if err != nil {
		t.Fatalf("ResumeRoute: %v", err)
	}
	if resumed.NeedsChoice {
		t.Fatal("resumed route should complete without another choice")
	}
	if got := resumed.Final("c"); got != "e" {
		t.Errorf("final station = %s, want e", got)
	}
}

func TestStepwiseRouteDeadEndTurnsAround(t *testing.T) {
	rc := NewRouteCalculator(testNetwork(t))

	// d -> e is a dead end; the third step turns back toward d.
	route, err := rc.ResumeRoute("c", "d", 3)
	if err != nil {
		t.Fatalf("ResumeRoute: %v", err)
	}
	if route.NeedsChoice {
		t.Fatal("dead-end walk should not need a choice")
	}
	if !reflect.DeepEqual(route.Path, []string{"d", "e", "d"}) {
		t.Errorf("path = %v, want [d e d]", route.Path)
	}
}

func TestResumeRouteValidation(t *testing.T) {
	rc := NewRouteCalculator(testNetwork(t))
	if _, err := rc.ResumeRoute("c", "a", 2); err == nil {
		t.Error("resuming toward a non-adjacent station should fail")
	}
	if _, err := rc.ResumeRoute("c", "d", 0); err == nil {
		t.Error("resuming with zero steps should fail")
	}
}

func TestReachableStations(t *testing.T) {
	rc := NewRouteCalculator(testNetwork(t))

	got := rc.ReachableStations("a", 2)
	// distance 2 lands on c; distance 0 (a itself) counts via even parity
	for _, id := range []string{"a", "c"} {
		if !got[id] {
			t.Errorf("station %s should be reachable in exactly 2 steps", id)
		}
	}
	if got["b"] {
		t.Error("b is at odd distance and should not be reachable in 2 steps")
	}
}

func TestNearestStationOfType(t *testing.T) {
	n := testNetwork(t)
	n.Stations["e"].Type = StationCardShop
	n.Stations["f"].Type = StationCardShop
	rc := NewRouteCalculator(n)

	id, dist, ok := rc.NearestStationOfType("a", StationCardShop)
	if !ok {
		t.Fatal("expected a reachable card shop")
	}
	if id != "f" || dist != 3 {
		t.Errorf("nearest shop = %s at %d, want f at 3", id, dist)
	}

	if _, _, ok := rc.NearestStationOfType("a", StationLottery); ok {
		t.Error("no lottery square exists, ok should be false")
	}
}
