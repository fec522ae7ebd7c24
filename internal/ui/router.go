package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxBodySize = 1 << 20 // 1 MB

// routes builds the HTTP router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.deps.Logger))
	r.Use(recoveryMiddleware(s.deps.Logger))
	r.Use(bodySizeLimitMiddleware(maxBodySize))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/state", s.handleState)
		r.Get("/pairing", s.handlePairing)
		r.Get("/settings", s.handleGetSettings)
		r.Get("/history", s.handleHistory)
		r.Get("/metrics", s.handleMetrics)

		r.Post("/register", s.handleRegister)
		r.Post("/status/check", s.handleCheckStatus)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.Post("/reset", s.handleReset)

		r.Put("/event", s.handleSelectEvent)
		r.Put("/mode", s.handleSetMode)
		r.Put("/settings", s.handleSettings)

		r.Post("/orders/{orderID}/items/{itemID}/ready", s.handleItemReady)
		r.Post("/orders/{orderID}/items/{itemID}/deliver", s.handleItemDeliver)
	})

	path := s.deps.Config.UI.WebSocket.Path
	if path == "" {
		path = "/ws"
	}
	r.Get(path, s.handleWS)

	return r
}
