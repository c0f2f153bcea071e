package http

import (
	"context"

	"github.com/example/cobunny/internal/application"
)

type contextKey string

const (
	profileContextKey   contextKey = "profile"
	requestIDContextKey contextKey = "request_id"
)

// ContextWithProfile returns a derived context containing the signed-in profile.
func ContextWithProfile(ctx context.Context, profile application.Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, profile)
}

// ProfileFromContext extracts the signed-in profile placed by RequireSession.
func ProfileFromContext(ctx context.Context) (application.Profile, bool) {
	profile, ok := ctx.Value(profileContextKey).(application.Profile)
	return profile, ok
}

// ContextWithRequestID stores the request identifier assigned by RequestLogger.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}
