package api

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"cigale/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a request scoped logger to the context and logs the
// outcome of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx := logging.ContextWithLogger(r.Context(), logger)

			metrics := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

			level := slog.LevelInfo
			if metrics.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "request completed",
				"status", metrics.Code,
				"duration", metrics.Duration,
				"bytes", metrics.Written,
			)
		})
	}
}
