package queue

import (
	"fmt"
	"time"

	"queueline/pkg/types"
)

// Registry mints tickets and tracks every ticket ever issued, whatever
// its current state. Display sequences are per category, the arrival
// counter is global; both start at zero, never reset, and a deleted
// ticket's number is never reissued.
//
// Registry is not safe for concurrent use on its own; the dispatch
// engine serializes all access under its exclusion domain.
type Registry struct {
	categories map[string]types.Category
	order      []string // category listing order, as configured
	sequences  map[string]int
	arrival    uint64
	tickets    map[string]*types.Ticket
}

// NewRegistry builds a registry over the fixed category enumeration.
func NewRegistry(categories []types.Category) *Registry {
	r := &Registry{
		categories: make(map[string]types.Category, len(categories)),
		sequences:  make(map[string]int, len(categories)),
		tickets:    make(map[string]*types.Ticket),
	}
	for _, c := range categories {
		r.categories[c.Name] = c
		r.order = append(r.order, c.Name)
	}
	return r
}

// Issue mints a new Waiting ticket for the category. The caller is
// responsible for enqueueing it.
func (r *Registry) Issue(category string) (*types.Ticket, error) {
	def, ok := r.categories[category]
	if !ok {
		return nil, types.ErrUnknownCategory
	}

	r.sequences[category]++
	r.arrival++

	t := &types.Ticket{
		ID:       fmt.Sprintf("%s-%03d", def.Prefix, r.sequences[category]),
		Category: category,
		Arrival:  r.arrival,
		State:    types.TicketWaiting,
		IssuedAt: time.Now(),
	}
	r.tickets[t.ID] = t
	return t, nil
}

// Ticket looks up a ticket by identifier, in any lifecycle state.
func (r *Registry) Ticket(id string) (*types.Ticket, bool) {
	t, ok := r.tickets[id]
	return t, ok
}

// HasCategory reports membership in the fixed enumeration.
func (r *Registry) HasCategory(name string) bool {
	_, ok := r.categories[name]
	return ok
}

// Categories returns the enumeration in configured order. With
// publicOnly set, hidden (admin-only) categories are omitted.
func (r *Registry) Categories(publicOnly bool) []types.Category {
	out := make([]types.Category, 0, len(r.order))
	for _, name := range r.order {
		def := r.categories[name]
		if publicOnly && !def.Public {
			continue
		}
		out = append(out, def)
	}
	return out
}

// CategoryNames returns all category names in configured order.
func (r *Registry) CategoryNames() []string {
	return append([]string(nil), r.order...)
}
