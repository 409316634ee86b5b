package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/solplay/internal/domain/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"loud", slog.LevelWarn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in, slog.LevelWarn), tt.in)
	}
}

func TestNewLoggerDebug(t *testing.T) {
	t.Setenv("SOLPLAY_LOG_LEVEL", "error")

	quiet := NewLogger(&config.RuntimeConfig{})
	assert.False(t, quiet.Enabled(context.Background(), slog.LevelInfo))

	loud := NewLogger(&config.RuntimeConfig{Debug: true})
	assert.True(t, loud.Enabled(context.Background(), slog.LevelDebug))
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/app/app.go", shortPath("/home/dev/solplay/internal/app/app.go"))
	assert.Equal(t, "main.go", shortPath("/elsewhere/main.go"))
}
