package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLogger_EventCarriesContextAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, ServiceName: "execution-service", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	logger.WithExecution("exec-1", "LIST-9").Event(ctx, "row.committed", map[string]any{"rowId": "r1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "execution-service", entry["service"])
	assert.Equal(t, "row.committed", entry["eventType"])
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "exec-1", entry["executionId"])
	assert.Equal(t, "r1", entry["rowId"])
}

func TestLogger_DebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, ServiceName: "svc", Output: &buf})

	logger.StepTransition(context.Background(), "r1", "scan_location", "confirm_item")
	assert.Empty(t, buf.String())
}

func TestLogger_WithErrorNil(t *testing.T) {
	logger := NewNop()
	assert.Same(t, logger, logger.WithError(nil))
}
