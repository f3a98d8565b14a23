package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"queueline/internal/api"
	"queueline/internal/config"
	"queueline/internal/counter"
	"queueline/internal/dispatch"
	"queueline/internal/hub"
	"queueline/internal/queue"
	"queueline/internal/session"
	"queueline/internal/websocket"
)

// Application wires all components and owns their lifecycle.
// Initialization order follows dependencies:
// stores → hub → engine → guard → transport → HTTP.
type Application struct {
	cfg    *config.Config
	hub    *hub.Hub
	engine *dispatch.Engine
	guard  *session.Guard
	echo   *echo.Echo
}

// NewApplication builds a fully wired application from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry := queue.NewRegistry(cfg.Queue.Categories)
	store := queue.NewStore()
	counters := counter.NewRegistry()

	notifications := hub.NewHub()
	engine := dispatch.NewEngine(registry, store, counters, notifications, cfg.Queue.WaitUnit)

	sessions := session.NewMemoryStore(cfg.Session.TTL)
	guard := session.NewGuard(sessions, engine)

	joinHandler := websocket.NewHandler(notifications, engine, websocket.Config{
		PingInterval: cfg.WebSocket.PingInterval,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		BufferSize:   cfg.WebSocket.BufferSize,
	})

	apiServer := api.NewServer(guard, engine, notifications, cfg.Admin)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout
	apiServer.Register(e, cfg.Session.CookieName, joinHandler.HandleJoin)

	return &Application{
		cfg:    cfg,
		hub:    notifications,
		engine: engine,
		guard:  guard,
		echo:   e,
	}, nil
}

// Start launches the hub and the HTTP server and verifies the server
// came up before returning.
func (app *Application) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", app.cfg.HTTP.Host, app.cfg.HTTP.Port)
	log.Printf("Starting queueline on %s", addr)

	if err := app.hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start notification hub: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		_ = app.hub.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("queueline started")
		return nil
	case <-ctx.Done():
		_ = app.hub.Stop()
		return ctx.Err()
	}
}

// Stop shuts components down in reverse order: HTTP first so no new
// mutations arrive, then the hub.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down queueline")

	if err := app.echo.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := app.hub.Stop(); err != nil {
		log.Printf("Hub shutdown error: %v", err)
	}

	log.Printf("queueline shutdown complete")
	return nil
}

// Addr returns the configured listen address.
func (app *Application) Addr() string {
	return fmt.Sprintf("%s:%d", app.cfg.HTTP.Host, app.cfg.HTTP.Port)
}
