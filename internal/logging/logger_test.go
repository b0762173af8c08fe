package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitLoggerJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		Logger = prev
		slog.SetDefault(prev)
	})

	var buf bytes.Buffer
	InitLoggerTo(&buf, "info", "json")

	slog.Debug("hidden")
	WithComponent("mqtt").Info("Connected", "broker", "localhost:1883")
	WithError(errors.New("boom")).Warn("Publish failed")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "Connected", first["msg"])
	assert.Equal(t, "mqtt", first["component"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "WARN", second["level"])
}

func TestInitLoggerText(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		Logger = prev
		slog.SetDefault(prev)
	})

	var buf bytes.Buffer
	InitLoggerTo(&buf, "debug", "text")
	WithTopic("bioreactor/level").Debug("Published")

	assert.Contains(t, buf.String(), "topic=bioreactor/level")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
