package engine

import "fmt"

// Station is a single square on the board. Relationships to other entities
// (neighbors, properties) are stored as IDs and resolved through the owning
// registries, never as direct references.
type Station struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Coord         Coordinate  `json:"coord"`
	Type          StationType `json:"type"`
	Region        string      `json:"region"`
	Neighbors     []string    `json:"neighbors"`
	PropertyIDs   []string    `json:"property_ids"`
	IsDestination bool        `json:"is_destination"`
}

// IsBranchPoint reports whether moving through this station requires an
// explicit route choice (three or more neighbors).
func (s *Station) IsBranchPoint() bool {
	return len(s.Neighbors) >= 3
}

func (s *Station) hasNeighbor(id string) bool {
	for _, n := range s.Neighbors {
		if n == id {
			return true
		}
	}
	return false
}

// StationNetwork is the undirected station graph. Stations are kept in a
// registry keyed by ID, with insertion order preserved so that iteration is
// deterministic for a fixed configuration.
type StationNetwork struct {
	Stations map[string]*Station `json:"stations"`
	Order    []string            `json:"order"`
}

// NewStationNetwork creates an empty network.
func NewStationNetwork() *StationNetwork {
	return &StationNetwork{
		Stations: make(map[string]*Station),
	}
}

// AddStation registers a station. Duplicate IDs are rejected.
func (n *StationNetwork) AddStation(s *Station) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("station must have an ID")
	}
	if _, exists := n.Stations[s.ID]; exists {
		return fmt.Errorf("station %q already exists", s.ID)
	}
	n.Stations[s.ID] = s
	n.Order = append(n.Order, s.ID)
	return nil
}

// Connect links two stations bidirectionally. Connecting a station to itself
// or to an unknown station is an error; reconnecting an existing edge is a
// no-op.
func (n *StationNetwork) Connect(a, b string) error {
	if a == b {
		return fmt.Errorf("cannot connect station %q to itself", a)
	}
	sa, ok := n.Stations[a]
	if !ok {
		return fmt.Errorf("unknown station %q", a)
	}
	sb, ok := n.Stations[b]
	if !ok {
		return fmt.Errorf("unknown station %q", b)
	}
	if !sa.hasNeighbor(b) {
		sa.Neighbors = append(sa.Neighbors, b)
	}
	if !sb.hasNeighbor(a) {
		sb.Neighbors = append(sb.Neighbors, a)
	}
	return nil
}

// Station looks up a station by ID.
func (n *StationNetwork) Station(id string) (*Station, bool) {
	s, ok := n.Stations[id]
	return s, ok
}

// StationIDs returns all station IDs in insertion order.
func (n *StationNetwork) StationIDs() []string {
	ids := make([]string, len(n.Order))
	copy(ids, n.Order)
	return ids
}

// StationsOfType returns stations of the given type in insertion order.
func (n *StationNetwork) StationsOfType(t StationType) []*Station {
	var result []*Station
	for _, id := range n.Order {
		if s := n.Stations[id]; s != nil && s.Type == t {
			result = append(result, s)
		}
	}
	return result
}

// NeighborIDs returns a copy of a station's adjacency list.
func (n *StationNetwork) NeighborIDs(id string) []string {
	s, ok := n.Stations[id]
	if !ok {
		return nil
	}
	out := make([]string, len(s.Neighbors))
	copy(out, s.Neighbors)
	return out
}

// SetDestination flags exactly one station as the current destination.
func (n *StationNetwork) SetDestination(id string) error {
	if _, ok := n.Stations[id]; !ok {
		return fmt.Errorf("unknown station %q", id)
	}
	for _, s := range n.Stations {
		s.IsDestination = s.ID == id
	}
	return nil
}

// Count returns the number of registered stations.
func (n *StationNetwork) Count() int {
	return len(n.Order)
}
