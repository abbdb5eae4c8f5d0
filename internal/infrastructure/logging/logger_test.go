package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teleinformatics/campus-core/internal/infrastructure/config"
)

func TestNewWithWriter_JSONDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "campus-core", "1.2.3")

	logger.Info("identity registered", "id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "identity registered", entry["msg"])
	assert.Equal(t, "campus-core", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "abc", entry["id"])
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "debug", Format: "text"}, "svc", "dev")

	logger.Debug("hello")

	assert.True(t, strings.Contains(buf.String(), "msg=hello"), buf.String())
	assert.True(t, strings.Contains(buf.String(), "service=svc"), buf.String())
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "warn"}, "svc", "dev")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{}, "svc", "dev").With("component", "gate")

	logger.Info("token rejected")

	assert.Contains(t, buf.String(), `"component":"gate"`)
}

func TestDefaultAndDiscard(t *testing.T) {
	assert.NotNil(t, Default())

	l := Discard()
	require.NotNil(t, l)
	l.Error("goes nowhere")
}
