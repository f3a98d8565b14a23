package counter

import (
	"github.com/google/uuid"

	"queueline/pkg/types"
)

// Registry holds counter definitions and each counter's currently
// served ticket. A counter's category set is fixed at creation;
// changing it means recreating the counter.
//
// Registry is not safe for concurrent use on its own; the dispatch
// engine serializes all access under its exclusion domain.
type Registry struct {
	counters map[string]*entry
	order    []string // creation order, stable for display views
}

type entry struct {
	counter   *types.Counter
	sequences map[string]int // per-category counter-local serve numbers
}

// NewRegistry creates an empty counter registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*entry)}
}

// Create registers a counter with a fresh identifier, no current
// ticket, and zeroed local sequences.
func (r *Registry) Create(name string, categories []string) (*types.Counter, error) {
	c := &types.Counter{
		ID:         uuid.New().String(),
		Name:       name,
		Categories: append([]string(nil), categories...),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	r.counters[c.ID] = &entry{
		counter:   c,
		sequences: make(map[string]int, len(categories)),
	}
	r.order = append(r.order, c.ID)
	return c.Clone(), nil
}

// Delete removes a counter and returns its final state so the caller
// can account for any ticket it was still serving.
func (r *Registry) Delete(counterID string) (*types.Counter, bool) {
	e, ok := r.counters[counterID]
	if !ok {
		return nil, false
	}
	delete(r.counters, counterID)
	for i, id := range r.order {
		if id == counterID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return e.counter, true
}

// Get returns the live counter record.
func (r *Registry) Get(counterID string) (*types.Counter, bool) {
	e, ok := r.counters[counterID]
	if !ok {
		return nil, false
	}
	return e.counter, true
}

// List returns counter copies in creation order.
func (r *Registry) List() []*types.Counter {
	out := make([]*types.Counter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.counters[id].counter.Clone())
	}
	return out
}

// NextServeNumber increments and returns the counter-local serve
// number for one of the counter's categories. Serve numbers are unique
// per counter+category and never reused.
func (r *Registry) NextServeNumber(counterID, category string) int {
	e, ok := r.counters[counterID]
	if !ok {
		return 0
	}
	e.sequences[category]++
	return e.sequences[category]
}

// SetCurrent records the ticket a counter is serving; an empty ticket
// ID marks the counter idle.
func (r *Registry) SetCurrent(counterID, ticketID string) {
	if e, ok := r.counters[counterID]; ok {
		e.counter.CurrentTicket = ticketID
	}
}
