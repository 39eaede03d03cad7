package engine

import (
	"fmt"
)

// StationConfig declares one board square.
type StationConfig struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	X      int         `json:"x"`
	Y      int         `json:"y"`
	Type   StationType `json:"type"`
	Region string      `json:"region,omitempty"`
}

// EdgeConfig declares one bidirectional rail connection.
type EdgeConfig struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PropertyConfig declares one purchasable property at a station.
type PropertyConfig struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	StationID  string           `json:"station_id"`
	Category   PropertyCategory `json:"category"`
	Price      Money            `json:"price"`
	IncomeRate float64          `json:"income_rate"`
}

// PlayerSpec declares one participant at game creation. Difficulty and
// Strategy only apply to computer players and are interpreted by the AI
// layer.
type PlayerSpec struct {
	Name       string `json:"name"`
	Computer   bool   `json:"computer"`
	Difficulty string `json:"difficulty,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
}

// GameConfig is a complete board definition: the station graph, the property
// roster, optional rule overrides, and an optional card catalog override.
type GameConfig struct {
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Stations       []StationConfig  `json:"stations"`
	Edges          []EdgeConfig     `json:"edges"`
	Properties     []PropertyConfig `json:"properties"`
	StartStationID string           `json:"start_station_id,omitempty"`
	DestinationID  string           `json:"destination_id,omitempty"`
	Settings       *GameSettings    `json:"settings,omitempty"`
	Cards          []CardTemplate   `json:"cards,omitempty"`
}

// ValidateGameConfig checks a board definition for structural problems:
// duplicate or dangling IDs, a disconnected graph, and out-of-range economic
// parameters. The first problem found is returned.
func ValidateGameConfig(cfg *GameConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Name == "" {
		return fmt.Errorf("config must have a name")
	}
	if len(cfg.Stations) < MinStations {
		return fmt.Errorf("config %q needs at least %d stations, has %d", cfg.Name, MinStations, len(cfg.Stations))
	}

	stationIDs := make(map[string]StationType, len(cfg.Stations))
	for _, s := range cfg.Stations {
		if s.ID == "" {
			return fmt.Errorf("station %q has no ID", s.Name)
		}
		if _, dup := stationIDs[s.ID]; dup {
			return fmt.Errorf("duplicate station ID %q", s.ID)
		}
		stationIDs[s.ID] = s.Type
	}

	if len(cfg.Edges) == 0 {
		return fmt.Errorf("config %q has no edges", cfg.Name)
	}
	adjacency := make(map[string][]string)
	for _, e := range cfg.Edges {
		if e.From == e.To {
			return fmt.Errorf("edge connects station %q to itself", e.From)
		}
		if _, ok := stationIDs[e.From]; !ok {
			return fmt.Errorf("edge references unknown station %q", e.From)
		}
		if _, ok := stationIDs[e.To]; !ok {
			return fmt.Errorf("edge references unknown station %q", e.To)
		}
		adjacency[e.From] = append(adjacency[e.From], e.To)
		adjacency[e.To] = append(adjacency[e.To], e.From)
	}

	// every station must be reachable from the first one
	visited := map[string]bool{cfg.Stations[0].ID: true}
	queue := []string{cfg.Stations[0].ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, s := range cfg.Stations {
		if !visited[s.ID] {
			return fmt.Errorf("station %q is not connected to the rest of the board", s.ID)
		}
	}

	propertyIDs := make(map[string]bool, len(cfg.Properties))
	for _, p := range cfg.Properties {
		if p.ID == "" {
			return fmt.Errorf("property %q has no ID", p.Name)
		}
		if propertyIDs[p.ID] {
			return fmt.Errorf("duplicate property ID %q", p.ID)
		}
		propertyIDs[p.ID] = true
		t, ok := stationIDs[p.StationID]
		if !ok {
			return fmt.Errorf("property %q references unknown station %q", p.ID, p.StationID)
		}
		if t != StationProperty {
			return fmt.Errorf("property %q is placed on %q, which is not a property station", p.ID, p.StationID)
		}
		if p.Price <= 0 {
			return fmt.Errorf("property %q must have a positive price", p.ID)
		}
		if p.IncomeRate <= 0 || p.IncomeRate > 1 {
			return fmt.Errorf("property %q has income rate %.2f, want (0, 1]", p.ID, p.IncomeRate)
		}
	}

	if cfg.StartStationID != "" {
		if _, ok := stationIDs[cfg.StartStationID]; !ok {
			return fmt.Errorf("start station %q does not exist", cfg.StartStationID)
		}
	}
	if cfg.DestinationID != "" {
		if _, ok := stationIDs[cfg.DestinationID]; !ok {
			return fmt.Errorf("destination %q does not exist", cfg.DestinationID)
		}
	}
	if cfg.Settings != nil {
		if cfg.Settings.MaxYears < 1 || cfg.Settings.MaxYears > MaxYearsLimit {
			return fmt.Errorf("max years %d out of range [1, %d]", cfg.Settings.MaxYears, MaxYearsLimit)
		}
		if cfg.Settings.MovementDice < 1 {
			return fmt.Errorf("movement dice must be at least 1")
		}
	}
	return nil
}

// ValidatePlayerSpecs checks the participant list for a new game.
func ValidatePlayerSpecs(specs []PlayerSpec) error {
	if len(specs) < MinPlayers || len(specs) > MaxPlayers {
		return fmt.Errorf("player count %d out of range [%d, %d]", len(specs), MinPlayers, MaxPlayers)
	}
	names := make(map[string]bool, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return fmt.Errorf("player %d has no name", i+1)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate player name %q", s.Name)
		}
		names[s.Name] = true
	}
	return nil
}

// BuildGameState materializes a validated config into a fresh game state
// with all players placed on the start station.
func BuildGameState(gameID string, cfg *GameConfig, specs []PlayerSpec) (*GameState, error) {
	if err := ValidateGameConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := ValidatePlayerSpecs(specs); err != nil {
		return nil, fmt.Errorf("invalid players: %w", err)
	}

	network := NewStationNetwork()
	for _, sc := range cfg.Stations {
		station := &Station{
			ID:     sc.ID,
			Name:   sc.Name,
			Coord:  Coordinate{X: sc.X, Y: sc.Y},
			Type:   sc.Type,
			Region: sc.Region,
		}
		if err := network.AddStation(station); err != nil {
			return nil, err
		}
	}
	for _, e := range cfg.Edges {
		if err := network.Connect(e.From, e.To); err != nil {
			return nil, err
		}
	}

	market := NewPropertyMarket()
	for _, pc := range cfg.Properties {
		prop := &Property{
			ID:           pc.ID,
			Name:         pc.Name,
			StationID:    pc.StationID,
			Category:     pc.Category,
			BasePrice:    pc.Price,
			CurrentPrice: pc.Price,
			IncomeRate:   pc.IncomeRate,
		}
		if err := market.AddProperty(prop); err != nil {
			return nil, err
		}
		if st, ok := network.Station(pc.StationID); ok {
			st.PropertyIDs = append(st.PropertyIDs, pc.ID)
		}
	}

	settings := DefaultGameSettings()
	if cfg.Settings != nil {
		settings = *cfg.Settings
	}

	start := cfg.StartStationID
	if start == "" {
		start = cfg.Stations[0].ID
	}
	players := make([]*Player, 0, len(specs))
	for i, spec := range specs {
		p := NewPlayer(fmt.Sprintf("player_%d", i+1), spec.Name, spec.Computer, settings.InitialMoney)
		p.StationID = start
		players = append(players, p)
	}

	gs := &GameState{
		ID:       gameID,
		Players:  players,
		Network:  network,
		Market:   market,
		Settings: settings,
		Phase:    PhaseSetup,
		Year:     1,
		Month:    1,
	}
	if cfg.DestinationID != "" {
		gs.DestinationID = cfg.DestinationID
		network.SetDestination(cfg.DestinationID)
	}
	return gs, nil
}

// DefaultGameConfig is the built-in board: a twelve-station loop with two
// dead-end spurs hanging off the branch stations.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Twelve-station loop with two branch spurs",
		Stations: []StationConfig{
			{ID: "st_01", Name: "Centralia", X: 0, Y: 0, Type: StationProperty, Region: "central"},
			{ID: "st_02", Name: "North Junction", X: 1, Y: 1, Type: StationPlus, Region: "north"},
			{ID: "st_03", Name: "Ferryport", X: 2, Y: 2, Type: StationProperty, Region: "north"},
			{ID: "st_04", Name: "Market Row", X: 3, Y: 2, Type: StationCardShop, Region: "north"},
			{ID: "st_05", Name: "Dust Gulch", X: 4, Y: 1, Type: StationMinus, Region: "east"},
			{ID: "st_06", Name: "Oakvale", X: 5, Y: 0, Type: StationProperty, Region: "east"},
			{ID: "st_07", Name: "Lucky Bend", X: 5, Y: -1, Type: StationNiceCard, Region: "east"},
			{ID: "st_08", Name: "Ironton", X: 4, Y: -2, Type: StationProperty, Region: "south"},
			{ID: "st_09", Name: "Fortuna Halt", X: 3, Y: -3, Type: StationLottery, Region: "south"},
			{ID: "st_10", Name: "Meadowbrook", X: 2, Y: -3, Type: StationProperty, Region: "south"},
			{ID: "st_11", Name: "South Junction", X: 1, Y: -2, Type: StationPlus, Region: "west"},
			{ID: "st_12", Name: "Sunhaven", X: 0, Y: -1, Type: StationProperty, Region: "west"},
			{ID: "st_13", Name: "Cliffside Halt", X: 2, Y: 3, Type: StationSuperCard, Region: "north"},
			{ID: "st_14", Name: "Lighthouse Point", X: 2, Y: 4, Type: StationProperty, Region: "north"},
			{ID: "st_15", Name: "Trade Crossing", X: 5, Y: -3, Type: StationCardExchange, Region: "south"},
			{ID: "st_16", Name: "Summit Springs", X: 6, Y: -4, Type: StationProperty, Region: "south"},
		},
		Edges: []EdgeConfig{
			{From: "st_01", To: "st_02"},
			{From: "st_02", To: "st_03"},
			{From: "st_03", To: "st_04"},
			{From: "st_04", To: "st_05"},
			{From: "st_05", To: "st_06"},
			{From: "st_06", To: "st_07"},
			{From: "st_07", To: "st_08"},
			{From: "st_08", To: "st_09"},
			{From: "st_09", To: "st_10"},
			{From: "st_10", To: "st_11"},
			{From: "st_11", To: "st_12"},
			{From: "st_12", To: "st_01"},
			{From: "st_03", To: "st_13"},
			{From: "st_13", To: "st_14"},
			{From: "st_08", To: "st_15"},
			{From: "st_15", To: "st_16"},
		},
		Properties: []PropertyConfig{
			{ID: "prop_01", Name: "Central Grand Hotel", StationID: "st_01", Category: CategoryTourism, Price: 40_000_000, IncomeRate: 0.08},
			{ID: "prop_02", Name: "Centralia Tech Park", StationID: "st_01", Category: CategoryTech, Price: 80_000_000, IncomeRate: 0.12},
			{ID: "prop_03", Name: "Harbor Fish Market", StationID: "st_03", Category: CategoryCommerce, Price: 15_000_000, IncomeRate: 0.10},
			{ID: "prop_04", Name: "Ferry Terminal Mall", StationID: "st_03", Category: CategoryCommerce, Price: 30_000_000, IncomeRate: 0.09},
			{ID: "prop_05", Name: "Oakvale Orchards", StationID: "st_06", Category: CategoryAgriculture, Price: 10_000_000, IncomeRate: 0.07},
			{ID: "prop_06", Name: "Oakvale Winery", StationID: "st_06", Category: CategoryAgriculture, Price: 25_000_000, IncomeRate: 0.10},
			{ID: "prop_07", Name: "Ironton Steelworks", StationID: "st_08", Category: CategoryIndustry, Price: 60_000_000, IncomeRate: 0.11},
			{ID: "prop_08", Name: "Ironton Rail Yard", StationID: "st_08", Category: CategoryIndustry, Price: 35_000_000, IncomeRate: 0.08},
			{ID: "prop_09", Name: "Meadowbrook Dairy", StationID: "st_10", Category: CategoryAgriculture, Price: 12_000_000, IncomeRate: 0.09},
			{ID: "prop_10", Name: "Sunhaven Resort", StationID: "st_12", Category: CategoryTourism, Price: 55_000_000, IncomeRate: 0.10},
			{ID: "prop_11", Name: "Sunhaven Boardwalk", StationID: "st_12", Category: CategoryTourism, Price: 20_000_000, IncomeRate: 0.08},
			{ID: "prop_12", Name: "Lighthouse Inn", StationID: "st_14", Category: CategoryTourism, Price: 18_000_000, IncomeRate: 0.09},
			{ID: "prop_13", Name: "Summit Hot Springs", StationID: "st_16", Category: CategoryTourism, Price: 45_000_000, IncomeRate: 0.12},
		},
		StartStationID: "st_01",
	}
}
