package webhooks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted at /api/webhook. limit, when non-nil,
// wraps the endpoint (per-client rate limiting).
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}
	r.Post("/clerk", h.Serve)
	return r
}
