package middleware

import (
	"log/slog"
	"net/http"

	"github.com/medfellows/quizforge-api/internal/api/shared"
	"github.com/medfellows/quizforge-api/internal/platform/logger"
)

// TraceMiddleware stamps each request with a trace ID and plants a logger
// carrying it on the context, so every log line for one request can be
// correlated. Apply it before anything that logs.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		log := slog.Default().With("trace_id", shared.GetTraceID(ctx))
		ctx = logger.WithContext(ctx, log)

		log.DebugContext(ctx, "request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
