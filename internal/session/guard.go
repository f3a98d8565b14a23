package session

import (
	"log"
	"sync"

	"queueline/pkg/types"
)

// Dispatcher is the slice of the dispatch engine the guard needs.
type Dispatcher interface {
	Issue(category string) (*types.Ticket, error)
	Delete(ticketID string) error
	Ticket(ticketID string) (*types.Ticket, bool)
}

// Guard enforces the one-active-ticket-per-visitor rule. It runs its
// compound check-then-act sequences under its own mutex and calls into
// the engine, never the other way around, so lock order is fixed.
type Guard struct {
	mu     sync.Mutex
	store  Store
	engine Dispatcher
}

// NewGuard creates a guard over a session store and the engine.
func NewGuard(store Store, engine Dispatcher) *Guard {
	return &Guard{store: store, engine: engine}
}

// RequestTicket resolves a visitor's ticket request:
//
//   - an active Waiting ticket in another category rejects the request
//     outright (resolve the existing ticket first);
//   - an active Waiting ticket in the same category is returned as-is,
//     so repeated requests are idempotent and mint nothing;
//   - a stale binding (the ticket left Waiting) is cleared and a fresh
//     ticket is minted;
//   - otherwise a new ticket is minted and bound to the session.
func (g *Guard) RequestTicket(token, category string) (*types.Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.store.Get(token); ok {
		if t, live := g.engine.Ticket(b.TicketID); live && t.State == types.TicketWaiting {
			if b.Category == category {
				return t, nil
			}
			return nil, types.ErrActiveTicketExists
		}
		// Ticket was called or deleted since binding; binding is stale.
		g.store.Clear(token)
	}

	t, err := g.engine.Issue(category)
	if err != nil {
		return nil, err
	}
	g.store.Set(token, Binding{Category: category, TicketID: t.ID})
	return t, nil
}

// DeleteTicket removes a Waiting ticket on the visitor's behalf and
// clears the session binding that referenced it. Already-called or
// already-deleted tickets report ErrTicketNotFound; the binding is
// still cleared, since the ticket is gone either way.
func (g *Guard) DeleteTicket(token, ticketID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.engine.Delete(ticketID)
	if b, ok := g.store.Get(token); ok && b.TicketID == ticketID {
		g.store.Clear(token)
	}
	return err
}

// EndSession clears all bindings for the session unconditionally,
// forcing the visitor's client back to a clean state.
func (g *Guard) EndSession(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.Clear(token)
	log.Printf("Session %s reset", token)
}
