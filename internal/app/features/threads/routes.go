package threads

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted at /threads.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/comments", h.AddComment)
	return r
}
