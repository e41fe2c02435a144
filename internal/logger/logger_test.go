package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{FatalLevel, "FATAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, WarnLevel)

	l.Debug("debug message")
	assert.Empty(t, buf.String())

	l.Info("info message")
	assert.Empty(t, buf.String())

	l.Warn("warn message")
	assert.NotEmpty(t, buf.String())
}

func TestStructuredLogger_FieldsAndEntry(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, DebugLevel)

	l.Info("hello", String("whisper_id", "WSP-AAAA-AAAA-AAAA"), Int("count", 3), Error(errors.New("boom")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "WSP-AAAA-AAAA-AAAA", entry["whisper_id"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "boom", entry["error"])
}

func TestStructuredLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, DebugLevel)
	scoped := l.WithFields(String("component", "gateway"))

	scoped.Info("connected")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gateway", entry["component"])
}

func TestStructuredLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, DebugLevel)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithWhisperID(ctx, "WSP-BBBB-BBBB-BBBB")
	scoped := l.WithContext(ctx)

	scoped.Info("dispatched")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "WSP-BBBB-BBBB-BBBB", entry["whisper_id"])
}

func TestStructuredLogger_SetLevel(t *testing.T) {
	l := NewLogger(&bytes.Buffer{}, InfoLevel)
	assert.Equal(t, InfoLevel, l.GetLevel())
	l.SetLevel(ErrorLevel)
	assert.Equal(t, ErrorLevel, l.GetLevel())
}
