// Package threads serves the thread feed, thread trees and replies.
package threads

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/threadhub/internal/app/services/threadsvc"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/respond"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds dependencies for the thread endpoints.
type Handler struct {
	Threads     *threadsvc.Service
	PageSize    int
	MaxPageSize int
	Log         *zap.Logger
}

func NewHandler(threads *threadsvc.Service, pageSize, maxPageSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Threads: threads, PageSize: pageSize, MaxPageSize: maxPageSize, Log: logger}
}

// List handles GET /threads?page=&size=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r, h.PageSize, h.MaxPageSize)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	out, err := h.Threads.FetchPosts(ctx, page)
	if err != nil {
		respond.Error(w, h.Log, "fetch posts", err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

type createThreadRequest struct {
	Text        string `json:"text"`
	Author      string `json:"author"`
	CommunityID string `json:"communityId"`
	Path        string `json:"path"`
}

// Create handles POST /threads.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.Log, "create thread", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	mut, err := h.Threads.CreateThread(ctx, threadsvc.CreateThreadInput{
		Text:        req.Text,
		AuthorID:    req.Author,
		CommunityID: req.CommunityID,
		Path:        req.Path,
	})
	if err != nil {
		respond.Error(w, h.Log, "create thread", err)
		return
	}
	respond.JSON(w, http.StatusCreated, mut)
}

// Show handles GET /threads/{id}?depth=. A missing depth selects the
// configured default.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	depth := -1
	if v := query.Get(r, "depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(w, h.Log, "fetch thread", apperr.Invalid("depth must be an integer"))
			return
		}
		depth = n
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	node, err := h.Threads.FetchThreadByID(ctx, chi.URLParam(r, "id"), depth)
	if err != nil {
		respond.Error(w, h.Log, "fetch thread", err)
		return
	}
	respond.JSON(w, http.StatusOK, node)
}

type addCommentRequest struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
	Path   string `json:"path"`
}

// AddComment handles POST /threads/{id}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := respond.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.Log, "add comment", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	mut, err := h.Threads.AddCommentToThread(ctx, threadsvc.AddCommentInput{
		ThreadID: chi.URLParam(r, "id"),
		Text:     req.Text,
		UserID:   req.UserID,
		Path:     req.Path,
	})
	if err != nil {
		respond.Error(w, h.Log, "add comment", err)
		return
	}
	respond.JSON(w, http.StatusCreated, mut)
}
