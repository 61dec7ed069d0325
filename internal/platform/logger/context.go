package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for the logger context key to avoid collisions.
type contextKey struct{}

// loggerKey is the context key under which a request- or task-scoped logger
// is stored.
var loggerKey = contextKey{}

// WithContext returns a new context carrying the given logger. Handlers and
// background workers attach loggers pre-populated with correlation fields
// (trace ID, task ID) so downstream code logs with the same context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger stored in the context. If the context
// carries no logger, the process-wide default logger is returned, so callers
// never need to nil-check.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
