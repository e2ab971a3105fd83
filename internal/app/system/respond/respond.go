// Package respond writes JSON API responses and maps domain errors to HTTP
// status codes.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every non-2xx API response.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Message: msg})
}

// Text writes a plain-text body.
func Text(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrVerification):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as JSON. Client errors carry their message; server errors
// are logged and answered with a generic message.
func Error(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		if log != nil {
			log.Error(op+" failed", zap.Error(err))
		}
		msg := "Internal server error"
		if status == http.StatusServiceUnavailable {
			msg = "Database unavailable"
		}
		Message(w, status, msg)
		return
	}
	Message(w, status, err.Error())
}

// MaxBodyBytes bounds a JSON request body.
const MaxBodyBytes = 1 << 20

// DecodeJSON reads a JSON request body into v. Unknown fields, trailing data
// and oversized bodies are ErrInvalidInput.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", apperr.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body: trailing data", apperr.ErrInvalidInput)
	}
	return nil
}
