package dispatch

import (
	"log"
	"sync"
	"time"

	"queueline/internal/counter"
	"queueline/internal/queue"
	"queueline/pkg/types"
)

// Topic names for the notification bus. Ticket holders subscribe to
// their own ticket topic; counters and admin views share one topic;
// public displays have their own.
const (
	TopicCounters = "counters"
	TopicDisplay  = "display"
)

// TicketTopic returns the per-ticket topic name.
func TicketTopic(ticketID string) string {
	return "ticket:" + ticketID
}

// Publisher fans events out to subscribed clients. Delivery is
// best-effort and happens after the state mutation is committed.
type Publisher interface {
	Publish(topic string, event *types.Event) error
}

// Engine implements call-next and call-again over the queue and
// counter state. All mutating operations and all snapshot reads run
// under a single mutex: two counters calling next concurrently for
// overlapping category sets must never both select the same ticket,
// and joining clients must never observe a half-applied mutation.
// Broadcast payloads are assembled inside the critical section from
// post-mutation state and published after release.
type Engine struct {
	mu       sync.Mutex
	registry *queue.Registry
	store    *queue.Store
	counters *counter.Registry
	bus      Publisher
	waitUnit time.Duration
}

// outbound is an event staged under the lock for delivery after it.
type outbound struct {
	topic string
	event *types.Event
}

// NewEngine wires the engine over its stores. bus may be nil, which
// disables fan-out (useful in tests). waitUnit is the fixed
// per-position time unit for wait estimates.
func NewEngine(registry *queue.Registry, store *queue.Store, counters *counter.Registry, bus Publisher, waitUnit time.Duration) *Engine {
	return &Engine{
		registry: registry,
		store:    store,
		counters: counters,
		bus:      bus,
		waitUnit: waitUnit,
	}
}

// Issue mints a Waiting ticket for the category, appends it to the
// category queue, and notifies the counters/admin channel.
func (e *Engine) Issue(category string) (*types.Ticket, error) {
	e.mu.Lock()
	t, err := e.registry.Issue(category)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.store.Enqueue(t)
	out := []outbound{{TopicCounters, types.NewEvent(types.EventQueueUpdate, e.snapshotLocked())}}
	view := t.Clone()
	e.mu.Unlock()

	e.publish(out)
	log.Printf("Issued ticket %s (category=%s arrival=%d)", view.ID, view.Category, view.Arrival)
	return view, nil
}

// CallNext selects the globally-earliest Waiting ticket among the
// counter's authorized categories, assigns it, and retires it from its
// queue as one atomic step. If no ticket is waiting the counter goes
// idle and nil is returned with no error. Display and counters/admin
// updates are always published; a successful call also notifies the
// ticket holder.
func (e *Engine) CallNext(counterID string) (*types.Ticket, error) {
	e.mu.Lock()
	c, ok := e.counters.Get(counterID)
	if !ok {
		e.mu.Unlock()
		return nil, types.ErrUnknownCounter
	}

	var out []outbound
	var view *types.Ticket

	next := e.store.PeekEarliest(c.Categories)
	if next == nil {
		e.counters.SetCurrent(counterID, "")
	} else {
		e.store.Remove(next.ID)
		next.State = types.TicketCalled
		next.CounterID = counterID
		next.ServeNumber = e.counters.NextServeNumber(counterID, next.Category)
		e.counters.SetCurrent(counterID, next.ID)
		view = next.Clone()
		out = append(out, outbound{TicketTopic(next.ID), types.NewEvent(types.EventTicketCalled, calledPayload(next, c.Name))})
	}
	out = append(out,
		outbound{TopicDisplay, types.NewEvent(types.EventDisplayUpdate, e.counters.List())},
		outbound{TopicCounters, types.NewEvent(types.EventQueueUpdate, e.snapshotLocked())},
	)
	e.mu.Unlock()

	e.publish(out)
	if view != nil {
		log.Printf("Counter %s called ticket %s (serve number %d)", counterID, view.ID, view.ServeNumber)
	}
	return view, nil
}

// CallAgain re-publishes the ticket-called notification for the ticket
// the counter is currently serving. Nothing is mutated: no queue
// changes, no sequence increments.
func (e *Engine) CallAgain(counterID string) (*types.Ticket, error) {
	e.mu.Lock()
	c, ok := e.counters.Get(counterID)
	if !ok {
		e.mu.Unlock()
		return nil, types.ErrUnknownCounter
	}
	if c.CurrentTicket == "" {
		e.mu.Unlock()
		return nil, types.ErrCounterIdle
	}
	t, ok := e.registry.Ticket(c.CurrentTicket)
	if !ok {
		e.mu.Unlock()
		return nil, types.ErrTicketNotFound
	}
	out := []outbound{
		{TicketTopic(t.ID), types.NewEvent(types.EventTicketCalled, calledPayload(t, c.Name))},
		{TopicDisplay, types.NewEvent(types.EventDisplayUpdate, e.counters.List())},
	}
	view := t.Clone()
	e.mu.Unlock()

	e.publish(out)
	return view, nil
}

// Delete removes a Waiting ticket from its category queue and marks it
// Deleted. Tickets that were already called or deleted report
// ErrTicketNotFound; a deletion racing a call loses cleanly, leaving
// state untouched.
func (e *Engine) Delete(ticketID string) error {
	e.mu.Lock()
	t, ok := e.registry.Ticket(ticketID)
	if !ok || t.State != types.TicketWaiting {
		e.mu.Unlock()
		return types.ErrTicketNotFound
	}
	e.store.Remove(ticketID)
	t.State = types.TicketDeleted
	out := []outbound{{TopicCounters, types.NewEvent(types.EventQueueUpdate, e.snapshotLocked())}}
	e.mu.Unlock()

	e.publish(out)
	log.Printf("Deleted ticket %s", ticketID)
	return nil
}

// Ticket returns a copy of a ticket in any lifecycle state.
func (e *Engine) Ticket(ticketID string) (*types.Ticket, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.registry.Ticket(ticketID)
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Position returns the zero-based rank of a Waiting ticket within its
// own category queue.
func (e *Engine) Position(ticketID string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.WaitPosition(ticketID)
}

// WaitEstimate returns the estimated wait in whole minutes: queue rank
// times the fixed per-position unit. Tickets that are not waiting
// estimate to zero. An approximation, not a commitment.
func (e *Engine) WaitEstimate(ticketID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.store.WaitPosition(ticketID)
	if !ok {
		return 0
	}
	return pos * int(e.waitUnit/time.Minute)
}

// CreateCounter validates the category set against the fixed
// enumeration and registers the counter.
func (e *Engine) CreateCounter(name string, categories []string) (*types.Counter, error) {
	e.mu.Lock()
	for _, cat := range categories {
		if !e.registry.HasCategory(cat) {
			e.mu.Unlock()
			return nil, types.ErrUnknownCategory
		}
	}
	c, err := e.counters.Create(name, categories)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	out := []outbound{
		{TopicDisplay, types.NewEvent(types.EventDisplayUpdate, e.counters.List())},
		{TopicCounters, types.NewEvent(types.EventQueueUpdate, e.snapshotLocked())},
	}
	e.mu.Unlock()

	e.publish(out)
	log.Printf("Created counter %s (%s)", c.ID, c.Name)
	return c, nil
}

// DeleteCounter removes a counter. A ticket it was serving stays
// Called and is never re-queued: it already left Waiting, and calling
// it a second time elsewhere would surprise its holder. The orphan is
// logged so staff can resolve it manually.
func (e *Engine) DeleteCounter(counterID string) error {
	e.mu.Lock()
	c, ok := e.counters.Delete(counterID)
	if !ok {
		e.mu.Unlock()
		return types.ErrUnknownCounter
	}
	out := []outbound{
		{TopicDisplay, types.NewEvent(types.EventDisplayUpdate, e.counters.List())},
		{TopicCounters, types.NewEvent(types.EventQueueUpdate, e.snapshotLocked())},
	}
	e.mu.Unlock()

	e.publish(out)
	if c.CurrentTicket != "" {
		log.Printf("Deleted counter %s while serving ticket %s; ticket stays called (abandoned)", counterID, c.CurrentTicket)
	} else {
		log.Printf("Deleted counter %s", counterID)
	}
	return nil
}

// Counters returns a stable-ordered snapshot of all counters.
func (e *Engine) Counters() []*types.Counter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counters.List()
}

// Snapshot assembles the full queue+counter state under the exclusion
// domain, for freshly-joining clients and admin views.
func (e *Engine) Snapshot() *types.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Categories exposes the fixed enumeration; publicOnly hides the
// admin-only subset from visitor views.
func (e *Engine) Categories(publicOnly bool) []types.Category {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Categories(publicOnly)
}

func (e *Engine) snapshotLocked() *types.Snapshot {
	snap := &types.Snapshot{
		Queues:   make(map[string][]*types.Ticket),
		Counters: e.counters.List(),
	}
	for _, cat := range e.registry.CategoryNames() {
		snap.Queues[cat] = e.store.Tickets(cat)
	}
	return snap
}

func (e *Engine) publish(out []outbound) {
	if e.bus == nil {
		return
	}
	for _, o := range out {
		if err := e.bus.Publish(o.topic, o.event); err != nil {
			log.Printf("Publish to %s failed: %v", o.topic, err)
		}
	}
}

func calledPayload(t *types.Ticket, counterName string) *types.TicketCalledPayload {
	return &types.TicketCalledPayload{
		TicketID:    t.ID,
		Category:    t.Category,
		CounterID:   t.CounterID,
		CounterName: counterName,
		ServeNumber: t.ServeNumber,
	}
}
