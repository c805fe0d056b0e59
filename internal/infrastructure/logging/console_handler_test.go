package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgoncalves/expense-sync-backend/internal/infrastructure/config"
)

func TestConsoleHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, nil))

	logger.Info("pulled account", slog.String("account", "checking"), slog.Int("transactions", 3))

	line := buf.String()
	assert.Contains(t, line, "[INFO] pulled account")
	assert.Contains(t, line, "account=checking")
	assert.Contains(t, line, "transactions=3")
}

func TestConsoleHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := NewConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}

func TestConsoleHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	base := NewConsoleHandler(&buf, nil)
	logger := slog.New(base).With(slog.String("run_id", "abc")).WithGroup("pull")

	logger.Info("done", slog.String("account", "checking"))

	line := buf.String()
	assert.Contains(t, line, "run_id=abc")
	assert.Contains(t, line, "pull.account=checking")
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", "text", ""} {
		logger := NewLogger(config.LoggingConfig{Level: "debug", Format: format})
		require.NotNil(t, logger, format)
	}
}
