package http

import (
	"context"
	"log/slog"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/logging"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity returns a derived context carrying the resolved caller
// identity.
func ContextWithIdentity(ctx context.Context, identity application.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext extracts the caller identity from context if present.
func IdentityFromContext(ctx context.Context) (application.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(application.Identity)
	return identity, ok
}

// ContextWithLogger stores the request scoped logger on the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
