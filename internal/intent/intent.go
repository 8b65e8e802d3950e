// Package intent defines the tracked intent vocabulary shared by the widget
// and the collector: variants, event types, lifecycle states and the event
// wire format.
package intent

import "fmt"

// Variant is the experiment arm an intent is assigned to. It is persisted per
// intent id and never changes once stored.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// Valid reports whether v is one of the two known arms.
func (v Variant) Valid() bool {
	return v == VariantA || v == VariantB
}

// EventType names one of the three events a page load can send.
type EventType string

const (
	EventImpression    EventType = "impression"
	EventResolution    EventType = "resolution"
	EventTicketCreated EventType = "ticket_created"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventImpression, EventResolution, EventTicketCreated:
		return true
	}
	return false
}

// State is the in-memory lifecycle of one tracked intent. Resolved and
// Ticketed are terminal.
type State string

const (
	StateArmed    State = "armed"
	StateResolved State = "resolved"
	StateTicketed State = "ticketed"
)

// Event is the wire body posted to the collection endpoint.
type Event struct {
	Type     EventType `json:"type"`
	IntentID string    `json:"intent_id"`
	Variant  Variant   `json:"variant"`
}

// NewEvent builds the event of type t for intent id under variant v.
func NewEvent(t EventType, id string, v Variant) Event {
	return Event{Type: t, IntentID: id, Variant: v}
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s/%s)", e.Type, e.IntentID, e.Variant)
}
