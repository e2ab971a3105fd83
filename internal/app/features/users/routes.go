package users

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted at /users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Get("/{id}/threads", h.Posts)
	r.Get("/{id}/activity", h.Activity)
	return r
}
