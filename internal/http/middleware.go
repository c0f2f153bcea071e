package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/cobunny/internal/application"
)

// SessionGuard exposes the session state consulted before guarded routes.
type SessionGuard interface {
	IsAuthenticated() bool
	CurrentUser(ctx context.Context) (application.Profile, bool, error)
}

// RequireSession admits requests only while a user is signed in and places the
// current profile in the request context.
func RequireSession(guard SessionGuard, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if guard == nil || !guard.IsAuthenticated() {
				responder.writeFailure(ctx, w, http.StatusUnauthorized, errNotSignedIn.Error())
				return
			}

			profile, ok, err := guard.CurrentUser(ctx)
			if err != nil {
				responder.writeError(ctx, w, http.StatusInternalServerError, err)
				return
			}
			if !ok {
				responder.writeFailure(ctx, w, http.StatusUnauthorized, errNotSignedIn.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithProfile(ctx, profile)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// RequestLogger assigns each request a UUID, echoes it in X-Request-ID and
// attaches a request scoped logger to the context.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithRequestID(ContextWithLogger(r.Context(), logger), id)
			w.Header().Set("X-Request-ID", id)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.status, "duration", time.Since(start))
		})
	}
}
