package health

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/system/docstore"
	"github.com/dalemusser/threadhub/internal/app/system/respond"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var errNotConnected = errors.New("document store not connected")

// Handler holds dependencies needed for health checks.
type Handler struct {
	Conn *docstore.Conn // nil in degraded mode
	Log  *zap.Logger
}

// NewHandler constructs a health Handler with the store handle and logger.
func NewHandler(conn *docstore.Conn, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Conn: conn, Log: logger}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected" }
//
// On DB failure or in degraded mode: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		respond.JSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  "Database unavailable",
			Error:    err.Error(),
		})
		return
	}

	respond.JSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "connected"})
}

func (h *Handler) ping(ctx context.Context) error {
	if h.Conn == nil || !h.Conn.Connected() {
		return errNotConnected
	}
	return h.Conn.Client().Ping(ctx, readpref.Primary())
}
