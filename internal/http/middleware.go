package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/roomreserve/internal/application"
)

const (
	userIDHeader    = "X-User-Id"
	userEmailHeader = "X-User-Email"
)

// ResolveIdentity reads the caller identity from request headers and stores
// it on the context. Requests without the id header pass through anonymous;
// operations that need an identity reject them downstream.
func ResolveIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := application.Identity{
				ID:    strings.TrimSpace(r.Header.Get(userIDHeader)),
				Email: strings.TrimSpace(r.Header.Get(userEmailHeader)),
			}
			if identity.Present() {
				r = r.WithContext(ContextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger attaches a request scoped logger to the context and logs
// request start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
