package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"queueline/internal/dispatch"
	"queueline/internal/hub"
	"queueline/pkg/types"
)

// Channel names clients may join.
const (
	ChannelTicket   = "ticket"
	ChannelCounters = "counters"
	ChannelDisplay  = "display"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Displays and counter pages are served from arbitrary hosts on
		// the venue network.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// State is the read-only slice of the dispatch engine the handler
// needs to build join snapshots.
type State interface {
	Ticket(ticketID string) (*types.Ticket, bool)
	Snapshot() *types.Snapshot
	Counters() []*types.Counter
}

// Config holds the transport tuning knobs.
type Config struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BufferSize   int
}

// Handler upgrades join requests and bridges connections to the hub.
// Every joining client immediately receives a current snapshot, then
// incremental events for its channel.
type Handler struct {
	hub   *hub.Hub
	state State
	cfg   Config
}

// NewHandler creates a join handler.
func NewHandler(h *hub.Hub, state State, cfg Config) *Handler {
	return &Handler{hub: h, state: state, cfg: cfg}
}

// HandleJoin serves GET /ws?channel=ticket|counters|display. The
// ticket channel additionally requires ticket_id. Validation happens
// before the upgrade so clients get proper HTTP errors.
func (h *Handler) HandleJoin(c echo.Context) error {
	channel := c.QueryParam("channel")

	var topic string
	var snapshot *types.Event

	switch channel {
	case ChannelTicket:
		ticketID := c.QueryParam("ticket_id")
		if ticketID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, ErrMissingTicketID.Error())
		}
		t, ok := h.state.Ticket(ticketID)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, types.ErrTicketNotFound.Error())
		}
		topic = dispatch.TicketTopic(ticketID)
		snapshot = types.NewEvent(types.EventTicketStatus, t)
	case ChannelCounters:
		topic = dispatch.TopicCounters
		snapshot = types.NewEvent(types.EventQueueUpdate, h.state.Snapshot())
	case ChannelDisplay:
		topic = dispatch.TopicDisplay
		snapshot = types.NewEvent(types.EventDisplayUpdate, h.state.Counters())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, ErrUnknownChannel.Error())
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return nil
	}

	conn := NewConnection(ws, h.cfg.BufferSize, h.cfg.WriteTimeout)

	// Snapshot first, then subscribe. An event published in between is
	// lost, but the next mutation re-sends full state anyway.
	if err := conn.WriteJSON(snapshot); err != nil {
		log.Printf("Failed to send join snapshot: %v", err)
		_ = conn.Close()
		return nil
	}
	if err := h.hub.Subscribe(topic, conn); err != nil {
		log.Printf("Failed to subscribe %s client: %v", channel, err)
		_ = conn.Close()
		return nil
	}

	go h.readLoop(conn, topic)
	return nil
}

// readLoop keeps the connection alive with ping/pong heartbeats and
// drains client frames until the peer goes away. Clients never send
// application messages over the socket; all mutations go through HTTP.
func (h *Handler) readLoop(conn *Connection, topic string) {
	defer func() {
		if err := h.hub.Unsubscribe(topic, conn); err != nil && err != hub.ErrHubNotRunning {
			log.Printf("Unsubscribe failed: %v", err)
		}
		h.hub.Detach(conn)
		_ = conn.Close()
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
					return
				}
			case <-conn.Done():
				return
			}
		}
	}()

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
	}
}
