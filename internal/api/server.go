package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"queueline/internal/config"
	"queueline/internal/dispatch"
	"queueline/internal/middleware"
	"queueline/internal/session"
	"queueline/pkg/types"
)

// Stats is the slice of the hub the health endpoint reports on.
type Stats interface {
	GetStats() map[string]int
}

// Server exposes the visitor, counter, and admin HTTP operations. No
// business logic lives here: handlers bind JSON, call the guard or the
// engine, and map domain errors to status codes.
type Server struct {
	guard  *session.Guard
	engine *dispatch.Engine
	hub    Stats
	admin  *config.AdminConfig
}

// NewServer creates the API server.
func NewServer(guard *session.Guard, engine *dispatch.Engine, hub Stats, admin *config.AdminConfig) *Server {
	return &Server{guard: guard, engine: engine, hub: hub, admin: admin}
}

// Register attaches all routes. Visitor routes carry the session
// cookie middleware; counter management requires an admin token.
func (s *Server) Register(e *echo.Echo, cookieName string, joinHandler echo.HandlerFunc) {
	e.GET("/healthz", s.Health)
	e.GET("/ws", joinHandler)

	api := e.Group("/api")
	api.Use(middleware.VisitorSession(cookieName))

	api.GET("/categories", s.Categories)
	api.POST("/tickets", s.CreateTicket)
	api.DELETE("/tickets/:id", s.DeleteTicket)
	api.GET("/tickets/:id/wait", s.WaitTime)
	api.POST("/session/reset", s.ResetSession)

	api.POST("/counters/:id/call-next", s.CallNext)
	api.POST("/counters/:id/call-again", s.CallAgain)

	api.POST("/admin/login", s.AdminLogin)

	adm := api.Group("/admin", middleware.AdminAuth(s.admin.JWTSecret))
	adm.POST("/counters", s.CreateCounter)
	adm.DELETE("/counters/:id", s.DeleteCounter)
	adm.GET("/counters", s.ListCounters)
	adm.GET("/queues", s.ListQueues)
}

// Request/response shapes.

type CreateTicketRequest struct {
	Category string `json:"category"`
}

type TicketResponse struct {
	Ticket      *types.Ticket `json:"ticket"`
	Position    int           `json:"position"`
	WaitingTime int           `json:"waiting_time"`
}

type CallResponse struct {
	Ticket *types.Ticket `json:"ticket"`
	Idle   bool          `json:"idle"`
}

type AdminLoginRequest struct {
	Passcode string `json:"passcode"`
}

type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateCounterRequest struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

type CountersResponse struct {
	Counters   []*types.Counter `json:"counters"`
	Categories []types.Category `json:"categories"`
}

// Health reports process liveness plus hub statistics.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"hub":       s.hub.GetStats(),
		"counters":  len(s.engine.Counters()),
	})
}

// Categories lists the visitor-visible service categories. Hidden
// categories are omitted but remain requestable by exact name.
func (s *Server) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"categories": s.engine.Categories(true)})
}

// CreateTicket obtains (or re-returns) the visitor's ticket for a
// category, enforcing one active ticket per session.
func (s *Server) CreateTicket(c echo.Context) error {
	var req CreateTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
	}
	if req.Category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category is required"})
	}

	token := middleware.SessionToken(c)
	t, err := s.guard.RequestTicket(token, req.Category)
	switch {
	case errors.Is(err, types.ErrUnknownCategory):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, types.ErrActiveTicketExists):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "you already hold a ticket; view or delete it before requesting another",
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue ticket"})
	}

	pos, _ := s.engine.Position(t.ID)
	return c.JSON(http.StatusCreated, TicketResponse{
		Ticket:      t,
		Position:    pos,
		WaitingTime: s.engine.WaitEstimate(t.ID),
	})
}

// DeleteTicket withdraws a Waiting ticket. Tickets already called or
// deleted report not-found; from the caller's view they are simply
// gone.
func (s *Server) DeleteTicket(c echo.Context) error {
	token := middleware.SessionToken(c)
	err := s.guard.DeleteTicket(token, c.Param("id"))
	if errors.Is(err, types.ErrTicketNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete ticket"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": c.Param("id")})
}

// WaitTime returns the polled wait estimate in minutes; zero when the
// ticket is not waiting or does not exist.
func (s *Server) WaitTime(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"waiting_time": s.engine.WaitEstimate(c.Param("id"))})
}

// ResetSession clears the visitor's bindings unconditionally.
func (s *Server) ResetSession(c echo.Context) error {
	s.guard.EndSession(middleware.SessionToken(c))
	return c.NoContent(http.StatusNoContent)
}

// CallNext pulls the next eligible ticket for a counter; an empty
// selection transitions the counter to idle.
func (s *Server) CallNext(c echo.Context) error {
	t, err := s.engine.CallNext(c.Param("id"))
	if errors.Is(err, types.ErrUnknownCounter) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "call next failed"})
	}
	return c.JSON(http.StatusOK, CallResponse{Ticket: t, Idle: t == nil})
}

// CallAgain repeats the announcement for the currently-served ticket.
func (s *Server) CallAgain(c echo.Context) error {
	t, err := s.engine.CallAgain(c.Param("id"))
	switch {
	case errors.Is(err, types.ErrUnknownCounter):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, types.ErrCounterIdle):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "call again failed"})
	}
	return c.JSON(http.StatusOK, CallResponse{Ticket: t})
}

// AdminLogin exchanges the shared passcode for a bearer token.
func (s *Server) AdminLogin(c echo.Context) error {
	var req AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
	}
	if subtle.ConstantTimeCompare([]byte(req.Passcode), []byte(s.admin.Passcode)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid passcode"})
	}

	token, exp, err := middleware.NewAdminToken(s.admin.JWTSecret, s.admin.TokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, AdminLoginResponse{Token: token, ExpiresAt: exp})
}

// CreateCounter registers a new counter serving a category subset.
func (s *Server) CreateCounter(c echo.Context) error {
	var req CreateCounterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
	}

	ctr, err := s.engine.CreateCounter(req.Name, req.Categories)
	switch {
	case errors.Is(err, types.ErrUnknownCategory),
		errors.Is(err, types.ErrInvalidCounterName),
		errors.Is(err, types.ErrEmptyCategorySet):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create counter"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"counter": ctr})
}

// DeleteCounter removes a counter; in-flight tickets stay called.
func (s *Server) DeleteCounter(c echo.Context) error {
	err := s.engine.DeleteCounter(c.Param("id"))
	if errors.Is(err, types.ErrUnknownCounter) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete counter"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": c.Param("id")})
}

// ListCounters returns all counters and the full category enumeration
// (including hidden categories) for the admin view.
func (s *Server) ListCounters(c echo.Context) error {
	return c.JSON(http.StatusOK, CountersResponse{
		Counters:   s.engine.Counters(),
		Categories: s.engine.Categories(false),
	})
}

// ListQueues returns the full queue+counter snapshot.
func (s *Server) ListQueues(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Snapshot())
}
