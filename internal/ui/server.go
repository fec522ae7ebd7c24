package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openeos/tvdisplay-core/internal/display"
	"github.com/openeos/tvdisplay-core/internal/history"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/config"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/database"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
	"github.com/openeos/tvdisplay-core/internal/session"
)

const gracefulShutdownTimeout = 10 * time.Second

// SessionControl is the slice of the session manager the UI needs.
type SessionControl interface {
	Snapshot() session.Snapshot
	Token() string
	Register(ctx context.Context, name, organizationSlug string, class session.DeviceClass) (session.Snapshot, error)
	CheckStatus(ctx context.Context) (session.Snapshot, error)
	UpdateDeviceClass(ctx context.Context, class session.DeviceClass) error
	SetSelectedEventID(ctx context.Context, eventID string) error
	Logout(ctx context.Context) error
	ClearDevice(ctx context.Context) error
}

// ItemIntents publishes order-item actions to the backend. Intents
// never mutate local state; the backend echo does.
type ItemIntents interface {
	MarkItemReady(orderID, itemID string) error
	MarkItemDelivered(orderID, itemID string) error
	Connected() bool
}

// Refresher triggers on-demand data refreshes.
type Refresher interface {
	RefreshNow()
	RefreshCatalog()
}

// Journal exposes the recent sync history for diagnostics.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// KV holds the screen preferences (theme, locale) that live outside
// the display store.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Deps contains the server's dependencies.
type Deps struct {
	Config   *config.Config
	Logger   *logging.Logger
	Session  SessionControl
	Store    *display.Store
	Realtime ItemIntents
	Refresh  Refresher
	Journal  Journal
	KV       KV
	DB       *database.DB
	Version  string
}

// Server is the local HTTP surface the render layer talks to. It
// serves state reads, operator actions, and the state-stream
// WebSocket on loopback.
type Server struct {
	deps       Deps
	httpServer *http.Server
	hub        *Hub
	startTime  time.Time
}

// New creates a UI server with the given dependencies.
func New(deps Deps) *Server {
	s := &Server{
		deps:      deps,
		hub:       NewHub(deps.Config.UI.WebSocket, deps.Logger),
		startTime: time.Now(),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.UI.Host, deps.Config.UI.Port),
		Handler:      s.routes(),
		ReadTimeout:  deps.Config.GetReadTimeout(),
		WriteTimeout: deps.Config.GetWriteTimeout(),
		IdleTimeout:  deps.Config.GetIdleTimeout(),
	}

	return s
}

// Hub returns the WebSocket hub so state-change observers can push
// frames.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening. It returns immediately; ListenAndServe runs
// in the background and fatal errors surface through the logger.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()

	go func() {
		s.deps.Logger.Info("ui server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.deps.Logger.Error("ui server failed", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down ui server: %w", err)
	}
	return nil
}
