package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/catalog/pkg/observability"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "test-svc", "test", observability.ModeCLI))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	logger.InfoContext(trace.ContextWithSpanContext(context.Background(), sc), "loaded")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
	assert.Equal(t, "test-svc", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "cli", record["mode"])
}

func TestTracingHandler_NoTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "catalog", "", observability.ModeShell))

	logger.InfoContext(context.Background(), "no span")

	record := decodeRecord(t, &buf)

	_, hasTraceID := record["trace_id"]
	assert.False(t, hasTraceID)

	_, hasEnv := record["env"]
	assert.False(t, hasEnv)

	assert.Equal(t, "catalog", record["service"])
	assert.Equal(t, "shell", record["mode"])
}

func TestTracingHandler_GroupKeepsServiceAtTopLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "catalog", "", observability.ModeCLI))

	logger.WithGroup("ingest").With(slog.String("source", "a.csv")).
		InfoContext(context.Background(), "row skipped", slog.Int("line", 3))

	record := decodeRecord(t, &buf)
	assert.Equal(t, "catalog", record["service"])

	group, ok := record["ingest"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a.csv", group["source"])
	assert.InDelta(t, 3, group["line"], 0)
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &buf
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(cfg)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "service=catalog")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := observability.ParseLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := observability.ParseLevel("verbose")
	require.ErrorIs(t, err, observability.ErrUnknownLogLevel)
}
