package engine

import "fmt"

// RouteCalculator answers reachability and pathfinding questions over a
// station network. It is a pure read-only observer: it never mutates the
// network or any entity while computing routes.
type RouteCalculator struct {
	network *StationNetwork
}

// NewRouteCalculator creates a calculator bound to a network.
func NewRouteCalculator(network *StationNetwork) *RouteCalculator {
	return &RouteCalculator{network: network}
}

// RouteResult is the outcome of stepwise movement. When the walk hits a
// branch point that requires an external choice, NeedsChoice is set and the
// route stops at BranchStation with RemainingSteps still to travel.
type RouteResult struct {
	Path           []string `json:"path"` // stations entered, excluding the origin
	NeedsChoice    bool     `json:"needs_choice"`
	BranchStation  string   `json:"branch_station,omitempty"`
	Choices        []string `json:"choices,omitempty"`
	RemainingSteps int      `json:"remaining_steps,omitempty"`
}

// Final returns the last station of the path, or fallback when no step was
// taken yet.
func (r RouteResult) Final(fallback string) string {
	if len(r.Path) == 0 {
		return fallback
	}
	return r.Path[len(r.Path)-1]
}

// ReachableStations runs a BFS from the origin and returns the set of
// stations a walk of exactly `steps` squares can end on. The frontier at
// distance == steps is always included; interior stations count when the
// leftover steps have even parity, since a walk can burn two steps by
// stepping away and back.
func (rc *RouteCalculator) ReachableStations(fromID string, steps int) map[string]bool {
	result := make(map[string]bool)
	if steps < 0 {
		return result
	}
	dist := rc.bfs(fromID)
	for id, d := range dist {
		if d > steps {
			continue
		}
		if d == steps || (steps-d)%2 == 0 {
			result[id] = true
		}
	}
	return result
}

// ShortestPath returns the station sequence from `fromID` to `toID`
// inclusive. ShortestPath(A, A) is [A]. Unreachable pairs return an empty
// path. The graph is unweighted so BFS yields a shortest path.
func (rc *RouteCalculator) ShortestPath(fromID, toID string) []string {
	if _, ok := rc.network.Station(fromID); !ok {
		return nil
	}
	if _, ok := rc.network.Station(toID); !ok {
		return nil
	}
	if fromID == toID {
		return []string{fromID}
	}

	prev := map[string]string{fromID: ""}
	queue := []string{fromID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range rc.network.NeighborIDs(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == toID {
				return rc.buildPath(prev, fromID, toID)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// DistanceToDestination returns the shortest-path length in steps, or
// UnreachableDistance when no path exists.
func (rc *RouteCalculator) DistanceToDestination(fromID, toID string) int {
	path := rc.ShortestPath(fromID, toID)
	if len(path) == 0 {
		return UnreachableDistance
	}
	return len(path) - 1
}

// StepwiseRoute walks `steps` squares from the origin. The walk auto-advances
// only when exactly one non-backtracking neighbor exists; a dead end turns
// the walk around. Any other fork suspends the route and defers the choice to
// the caller.
func (rc *RouteCalculator) StepwiseRoute(fromID string, steps int) (RouteResult, error) {
	if _, ok := rc.network.Station(fromID); !ok {
		return RouteResult{}, fmt.Errorf("unknown station %q", fromID)
	}
	if steps < 0 {
		return RouteResult{}, fmt.Errorf("steps must be non-negative, got %d", steps)
	}
	return rc.walk(fromID, "", steps, nil), nil
}

// ResumeRoute continues a suspended route after the caller picked a branch.
// The chosen station must be adjacent to the branch point.
func (rc *RouteCalculator) ResumeRoute(branchID, chosenNext string, remaining int) (RouteResult, error) {
	branch, ok := rc.network.Station(branchID)
	if !ok {
		return RouteResult{}, fmt.Errorf("unknown station %q", branchID)
	}
	if !branch.hasNeighbor(chosenNext) {
		return RouteResult{}, fmt.Errorf("station %q is not adjacent to %q", chosenNext, branchID)
	}
	if remaining < 1 {
		return RouteResult{}, fmt.Errorf("remaining steps must be at least 1, got %d", remaining)
	}
	return rc.walk(chosenNext, branchID, remaining-1, []string{chosenNext}), nil
}

// walk advances step by step from cur (having arrived from prev) until steps
// are exhausted or a choice is needed.
func (rc *RouteCalculator) walk(cur, prev string, steps int, path []string) RouteResult {
	for steps > 0 {
		candidates := rc.forwardNeighbors(cur, prev)
		if len(candidates) == 0 {
			// dead end: the only way out is back where we came from
			candidates = rc.network.NeighborIDs(cur)
			if len(candidates) == 0 {
				break // isolated station, nowhere to go
			}
		}
		if len(candidates) > 1 {
			return RouteResult{
				Path:           path,
				NeedsChoice:    true,
				BranchStation:  cur,
				Choices:        candidates,
				RemainingSteps: steps,
			}
		}
		next := candidates[0]
		path = append(path, next)
		prev, cur = cur, next
		steps--
	}
	return RouteResult{Path: path}
}

// forwardNeighbors returns the neighbors of cur excluding the square we just
// came from.
func (rc *RouteCalculator) forwardNeighbors(cur, prev string) []string {
	var out []string
	for _, n := range rc.network.NeighborIDs(cur) {
		if n != prev {
			out = append(out, n)
		}
	}
	return out
}

// NearestStationOfType returns the closest station of any of the given types,
// excluding the origin itself. Returns ok=false when none is reachable.
func (rc *RouteCalculator) NearestStationOfType(fromID string, types ...StationType) (string, int, bool) {
	bestID := ""
	bestDist := UnreachableDistance
	for _, t := range types {
		for _, s := range rc.network.StationsOfType(t) {
			if s.ID == fromID {
				continue
			}
			if d := rc.DistanceToDestination(fromID, s.ID); d < bestDist {
				bestID = s.ID
				bestDist = d
			}
		}
	}
	return bestID, bestDist, bestID != ""
}

func (rc *RouteCalculator) bfs(fromID string) map[string]int {
	dist := make(map[string]int)
	if _, ok := rc.network.Station(fromID); !ok {
		return dist
	}
	dist[fromID] = 0
	queue := []string{fromID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range rc.network.NeighborIDs(cur) {
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[cur] + 1
			queue = append(queue, next)
		}
	}
	return dist
}

func (rc *RouteCalculator) buildPath(prev map[string]string, fromID, toID string) []string {
	var path []string
	for cur := toID; cur != ""; cur = prev[cur] {
		path = append(path, cur)
		if cur == fromID {
			break
		}
	}
	// reverse in place
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
