package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

var (
	errBadRequestBody   = errors.New("Invalid request body")
	errInvalidBookingID = errors.New("Invalid booking id")
	errInvalidSpaceID   = errors.New("Invalid space id")
	errNotSignedIn      = errors.New("Please sign in to continue")
	errBookingNotFound  = errors.New("Booking not found")
)

// envelope is the outcome shape rendered by the view layer.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, envelope{Success: true, Message: message, Data: data})
}

// writeFailure renders an unsuccessful outcome. Expected failures such as
// rejected credentials are not logged here; callers log them with context.
func (r responder) writeFailure(ctx context.Context, w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = statusMessage(status)
	}
	r.writeJSON(ctx, w, status, envelope{Success: false, Message: message})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if status < http.StatusInternalServerError {
			message = err.Error()
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.writeFailure(ctx, w, status, message)
}

func (r responder) decode(ctx context.Context, w http.ResponseWriter, req *http.Request, dst any) bool {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		r.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		r.loggerFor(ctx).DebugContext(ctx, "failed to decode request body", "error", err)
		return false
	}
	return true
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request is invalid"
	case http.StatusUnauthorized:
		return errNotSignedIn.Error()
	case http.StatusNotFound:
		return "The requested resource was not found"
	case http.StatusConflict:
		return "The request conflicts with existing data"
	default:
		return "Something went wrong, please try again"
	}
}
