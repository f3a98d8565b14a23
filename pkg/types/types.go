package types

import (
	"time"

	"github.com/google/uuid"
)

// TicketState tracks a ticket through its lifecycle. Tickets leave the
// Waiting state exactly once and never return to it.
type TicketState string

const (
	TicketWaiting TicketState = "waiting"
	TicketCalled  TicketState = "called"
	TicketDeleted TicketState = "deleted"
)

// Event types delivered over the notification bus.
const (
	EventTicketCalled  = "ticket_called"
	EventQueueUpdate   = "queue_update"
	EventDisplayUpdate = "display_update"
	EventTicketStatus  = "ticket_status"
)

// Ticket is a single queue position for one visitor in one category.
// Arrival is a global monotonic sequence assigned at creation and is
// the sole fairness key across categories. CounterID and ServeNumber
// stay zero until the ticket is called.
type Ticket struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	Arrival     uint64      `json:"arrival"`
	State       TicketState `json:"state"`
	CounterID   string      `json:"counter_id,omitempty"`
	ServeNumber int         `json:"serve_number,omitempty"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// Category is one fixed service type. Prefix forms ticket identifiers
// (PS-007); Public controls whether ordinary visitors see it in the
// category listing. Hidden categories can still be requested by name.
type Category struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
	Public bool   `json:"public"`
}

// Counter is a service point authorized to serve a fixed set of
// categories. CurrentTicket is empty while the counter is idle.
type Counter struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Categories    []string `json:"categories"`
	CurrentTicket string   `json:"current_ticket,omitempty"`
}

// Snapshot is a full, consistent copy of queue and counter state sent
// to newly-subscribing clients and after every mutation. Consumers
// render from snapshots, not deltas, so missed events self-heal.
type Snapshot struct {
	Queues   map[string][]*Ticket `json:"queues"`
	Counters []*Counter           `json:"counters"`
}

// Event is the envelope for all notification bus traffic.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent wraps a payload in an envelope with a fresh identifier and
// timestamp.
func NewEvent(eventType string, payload interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// TicketCalledPayload is the payload announcing a ticket to its holder
// and to public displays.
type TicketCalledPayload struct {
	TicketID    string `json:"ticket_id"`
	Category    string `json:"category"`
	CounterID   string `json:"counter_id"`
	CounterName string `json:"counter_name"`
	ServeNumber int    `json:"serve_number"`
}

// Clone returns an independent copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	c := *t
	return &c
}

// Clone returns an independent copy of the counter, including its
// category slice.
func (c *Counter) Clone() *Counter {
	d := *c
	d.Categories = append([]string(nil), c.Categories...)
	return &d
}
