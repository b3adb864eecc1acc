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

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInit_JSONIncludesSubsystemAndError(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, FormatJSON, &buf)
	t.Cleanup(func() { Init(LevelInfo, FormatText, nil) })

	Error("Broker", errors.New("boom"), "lookup failed for user=%s", "user123")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "lookup failed for user=user123", entry["msg"])
	assert.Equal(t, "Broker", entry["subsystem"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, slog.LevelError.String(), entry["level"])
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, FormatText, &buf)
	t.Cleanup(func() { Init(LevelInfo, FormatText, nil) })

	Debug("Test", "hidden")
	Info("Test", "hidden too")
	assert.Empty(t, buf.String())

	Warn("Test", "shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "subsystem=Test")
}

func TestLogger_FollowsInit(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, FormatText, &buf)
	t.Cleanup(func() { Init(LevelInfo, FormatText, nil) })

	stdLogger := slog.NewLogLogger(Logger().With("subsystem", "HTTP").Handler(), slog.LevelWarn)
	stdLogger.Print("http: TLS handshake error")

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "subsystem=HTTP")
	assert.Contains(t, buf.String(), "TLS handshake error")
}
