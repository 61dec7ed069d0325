package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medfellows/quizforge-api/internal/config"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "debug level", logLevel: "debug"},
		{name: "info level", logLevel: "info"},
		{name: "warn level", logLevel: "warn"},
		{name: "error level", logLevel: "error"},
		{name: "mixed case", logLevel: "INFO"},
		{name: "invalid defaults to info", logLevel: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: tt.logLevel})
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Same(t, logger, slog.Default(), "Setup must install the logger as default")
		})
	}
}

func TestFromContext_Default(t *testing.T) {
	// A bare context yields the default logger rather than nil.
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.Same(t, slog.Default(), logger)
}

func TestWithContext_RoundTrip(t *testing.T) {
	scoped := slog.New(slog.NewTextHandler(io.Discard, nil)).With("task_id", "abc")
	ctx := WithContext(context.Background(), scoped)

	assert.Same(t, scoped, FromContext(ctx))
}
