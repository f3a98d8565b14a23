package session

import (
	"sync"
	"time"
)

// Binding is the at-most-one outstanding ticket a visitor session may
// hold, system-wide across categories.
type Binding struct {
	Category string
	TicketID string
}

// Store persists session bindings keyed by an opaque session token.
// The interface decouples the guard from any particular transport's
// session mechanism (the HTTP layer happens to use cookies).
type Store interface {
	Get(token string) (Binding, bool)
	Set(token string, b Binding)
	Clear(token string)
}

// MemoryStore is the in-process Store. Entries expire after the
// configured TTL and are swept lazily on access; session lifetime is a
// deployment parameter, not a fixed constant.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	binding Binding
	expires time.Time
}

// NewMemoryStore creates a store with the given session TTL. A zero
// TTL means bindings never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(token string) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return Binding{}, false
	}
	if s.ttl > 0 && time.Now().After(e.expires) {
		delete(s.entries, token)
		return Binding{}, false
	}
	return e.binding, true
}

func (s *MemoryStore) Set(token string, b Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{
		binding: b,
		expires: time.Now().Add(s.ttl),
	}
}

func (s *MemoryStore) Clear(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
}
