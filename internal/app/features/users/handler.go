// Package users serves profiles, the user directory, a user's posts and
// their reply activity.
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/services/threadsvc"
	"github.com/dalemusser/threadhub/internal/app/services/usersvc"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/respond"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds dependencies for the user endpoints.
type Handler struct {
	Users       *usersvc.Service
	Threads     *threadsvc.Service
	PageSize    int
	MaxPageSize int
	Log         *zap.Logger
}

func NewHandler(users *usersvc.Service, threads *threadsvc.Service, pageSize, maxPageSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Users: users, Threads: threads, PageSize: pageSize, MaxPageSize: maxPageSize, Log: logger}
}

// List handles GET /users?exclude=&q=&page=&size=&sort=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	out, err := h.Users.FetchUsers(ctx, usersvc.FetchUsersInput{
		UserID: query.Get(r, "exclude"),
		Search: query.Get(r, "q"),
		Page:   paging.Parse(r, h.PageSize, h.MaxPageSize),
		SortBy: query.Get(r, "sort"),
	})
	if err != nil {
		respond.Error(w, h.Log, "fetch users", err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// Show handles GET /users/{id}, where id is the provider user id.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.FetchUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, "fetch user", err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

type updateUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	Path     string `json:"path"`
}

// Update handles PUT /users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.Log, "update user", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	mut, err := h.Users.UpdateUser(ctx, usersvc.UpdateUserInput{
		UserID:   chi.URLParam(r, "id"),
		Username: req.Username,
		Name:     req.Name,
		Bio:      req.Bio,
		Image:    req.Image,
		Path:     req.Path,
	})
	if err != nil {
		respond.Error(w, h.Log, "update user", err)
		return
	}
	respond.JSON(w, http.StatusOK, mut)
}

// Posts handles GET /users/{id}/threads.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	out, err := h.Threads.FetchUserPosts(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, "fetch user posts", err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// Activity handles GET /users/{id}/activity, where id is the user's
// ObjectID hex.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	replies, err := h.Users.GetActivity(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, "fetch activity", err)
		return
	}
	if replies == nil {
		replies = []models.ThreadNode{}
	}
	respond.JSON(w, http.StatusOK, activityResponse{Activity: replies})
}

type activityResponse struct {
	Activity []models.ThreadNode `json:"activity"`
}
