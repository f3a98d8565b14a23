package hub

import (
	"context"
	"log"
	"sync"

	"queueline/pkg/types"
)

// Client is anything that can receive a JSON event. WebSocket
// connections satisfy it; tests use in-memory fakes.
type Client interface {
	WriteJSON(v interface{}) error
}

// Hub is the notification bus: named topics that clients join
// explicitly and that state changes are published to. Delivery is
// best-effort, at-most-once, with no replay log; a client that misses
// an event receives a fresh snapshot on its next (re)join. A single
// goroutine owns the topic table, so no membership races are possible.
type Hub struct {
	publishCh     chan publication
	subscribeCh   chan subscription
	unsubscribeCh chan subscription
	detachCh      chan Client
	shutdownCh    chan struct{}

	topics map[string]map[Client]struct{}

	running bool
	mu      sync.RWMutex
}

type subscription struct {
	topic  string
	client Client
}

type publication struct {
	topic string
	event *types.Event
}

// NewHub creates a hub. Buffers absorb bursts of mutations without
// blocking the dispatch engine; an overflowing publish is dropped with
// an error rather than stalling a mutating request.
func NewHub() *Hub {
	return &Hub{
		publishCh:     make(chan publication, 256),
		subscribeCh:   make(chan subscription, 64),
		unsubscribeCh: make(chan subscription, 64),
		detachCh:      make(chan Client, 64),
		shutdownCh:    make(chan struct{}),
		topics:        make(map[string]map[Client]struct{}),
	}
}

// Start begins hub processing.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.mu.Unlock()

	log.Println("Starting notification hub")
	go h.run(ctx)
	return nil
}

// Stop shuts the hub down. Pending publications are discarded, which
// is fine: every consumer recovers state from snapshots, never solely
// from events.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	log.Println("Stopping notification hub")
	select {
	case <-h.shutdownCh:
	default:
		close(h.shutdownCh)
	}
	return nil
}

// Publish queues an event for delivery to a topic's subscribers.
func (h *Hub) Publish(topic string, event *types.Event) error {
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.publishCh <- publication{topic: topic, event: event}:
		return nil
	default:
		return ErrPublishChannelFull
	}
}

// Subscribe joins a client to a topic.
func (h *Hub) Subscribe(topic string, client Client) error {
	if client == nil {
		return ErrNilClient
	}
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.subscribeCh <- subscription{topic: topic, client: client}:
		return nil
	default:
		return ErrSubscribeChannelFull
	}
}

// Unsubscribe removes a client from one topic.
func (h *Hub) Unsubscribe(topic string, client Client) error {
	if client == nil {
		return ErrNilClient
	}
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.unsubscribeCh <- subscription{topic: topic, client: client}:
		return nil
	default:
		return ErrSubscribeChannelFull
	}
}

// Detach removes a client from every topic, used when its connection
// closes.
func (h *Hub) Detach(client Client) {
	if client == nil {
		return
	}
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}

	select {
	case h.detachCh <- client:
	default:
		// Detach is also performed lazily on the next failed write.
	}
}

// GetStats reports topic and subscriber counts for health checks.
func (h *Hub) GetStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := 0
	for _, members := range h.topics {
		subscribers += len(members)
	}
	return map[string]int{
		"topics":      len(h.topics),
		"subscribers": subscribers,
	}
}

func (h *Hub) run(ctx context.Context) {
	defer log.Println("Notification hub stopped")

	for {
		select {
		case pub := <-h.publishCh:
			h.deliver(pub)
		case sub := <-h.subscribeCh:
			h.addSubscriber(sub)
		case sub := <-h.unsubscribeCh:
			h.removeSubscriber(sub)
		case client := <-h.detachCh:
			h.detachAll(client)
		case <-h.shutdownCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) deliver(pub publication) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.topics[pub.topic]
	for client := range members {
		if err := client.WriteJSON(pub.event); err != nil {
			// Dead or saturated client: drop it from the topic. It will
			// resubscribe and get a snapshot when it reconnects.
			delete(members, client)
			log.Printf("Dropped subscriber from %s: %v", pub.topic, err)
		}
	}
	if len(members) == 0 {
		delete(h.topics, pub.topic)
	}
}

func (h *Hub) addSubscriber(sub subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[sub.topic] == nil {
		h.topics[sub.topic] = make(map[Client]struct{})
	}
	h.topics[sub.topic][sub.client] = struct{}{}
}

func (h *Hub) removeSubscriber(sub subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.topics[sub.topic]; ok {
		delete(members, sub.client)
		if len(members) == 0 {
			delete(h.topics, sub.topic)
		}
	}
}

func (h *Hub) detachAll(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, members := range h.topics {
		delete(members, client)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}
