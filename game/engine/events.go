package engine

// EventType identifies a domain event kind.
type EventType string

const (
	EventTurnChanged         EventType = "turn_changed"
	EventPlayerMoved         EventType = "player_moved"
	EventDiceRolled          EventType = "dice_rolled"
	EventMoneyChanged        EventType = "money_changed"
	EventPropertyPurchased   EventType = "property_purchased"
	EventPropertySold        EventType = "property_sold"
	EventMonopoly            EventType = "monopoly"
	EventCardUsed            EventType = "card_used"
	EventCardDrawn           EventType = "card_drawn"
	EventStatusChanged       EventType = "status_changed"
	EventYearlyIncome        EventType = "yearly_income"
	EventDestinationArrival  EventType = "destination_arrival"
	EventDestinationChanged  EventType = "destination_changed"
	EventDebuffTransferred   EventType = "debuff_transferred"
	EventSelectionRequested  EventType = "selection_requested"
	EventGameOver            EventType = "game_over"
	EventMessage             EventType = "message"
)

// Event is a typed domain event. Events are emitted in the exact order the
// corresponding mutation occurred, and only after the mutation is applied to
// the game state.
type Event struct {
	Type      EventType         `json:"type"`
	PlayerID  string            `json:"player_id,omitempty"`
	StationID string            `json:"station_id,omitempty"`
	Amount    int64             `json:"amount,omitempty"`
	Message   string            `json:"message"`
	Turn      int               `json:"turn,omitempty"`
	Year      int               `json:"year,omitempty"`
	Month     int               `json:"month,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// EventSink receives domain events. Publication is fire-and-forget: the
// engine never depends on whether anything is listening.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

// Publish implements EventSink.
func (f SinkFunc) Publish(e Event) {
	f(e)
}
