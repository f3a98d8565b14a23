package queue

import (
	"sort"

	"queueline/pkg/types"
)

// Store holds, per category, the ordered set of Waiting tickets.
// Ordering is non-decreasing in arrival order at all times: Enqueue
// inserts at the right position, so no defensive re-sort is needed.
//
// Store is not safe for concurrent use on its own; the dispatch engine
// serializes all access under its exclusion domain.
type Store struct {
	queues map[string][]*types.Ticket
}

// NewStore creates an empty queue store.
func NewStore() *Store {
	return &Store{queues: make(map[string][]*types.Ticket)}
}

// Enqueue inserts a ticket into its category queue, preserving arrival
// order. Tickets normally arrive in order and append in O(1); the
// binary search keeps the invariant even if they ever do not.
func (s *Store) Enqueue(t *types.Ticket) {
	q := s.queues[t.Category]
	i := sort.Search(len(q), func(i int) bool { return q[i].Arrival > t.Arrival })
	q = append(q, nil)
	copy(q[i+1:], q[i:])
	q[i] = t
	s.queues[t.Category] = q
}

// PeekEarliest returns the single Waiting ticket with the smallest
// arrival order across the given categories, or nil if all are empty.
// This is the cross-category FIFO merge: fairness is defined purely by
// global arrival order, never by category priority or round-robin.
func (s *Store) PeekEarliest(categories []string) *types.Ticket {
	var best *types.Ticket
	for _, cat := range categories {
		q := s.queues[cat]
		if len(q) == 0 {
			continue
		}
		if head := q[0]; best == nil || head.Arrival < best.Arrival {
			best = head
		}
	}
	return best
}

// Remove deletes a ticket from its category queue regardless of
// position. It reports false if the ticket is not queued.
func (s *Store) Remove(ticketID string) (*types.Ticket, bool) {
	for cat, q := range s.queues {
		for i, t := range q {
			if t.ID == ticketID {
				s.queues[cat] = append(q[:i], q[i+1:]...)
				return t, true
			}
		}
	}
	return nil, false
}

// WaitPosition returns the zero-based rank of a ticket within its own
// category queue, used for wait-time estimates.
func (s *Store) WaitPosition(ticketID string) (int, bool) {
	for _, q := range s.queues {
		for i, t := range q {
			if t.ID == ticketID {
				return i, true
			}
		}
	}
	return 0, false
}

// Tickets returns a copy of one category's queue in arrival order.
func (s *Store) Tickets(category string) []*types.Ticket {
	q := s.queues[category]
	out := make([]*types.Ticket, len(q))
	for i, t := range q {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of Waiting tickets in one category.
func (s *Store) Len(category string) int {
	return len(s.queues[category])
}
