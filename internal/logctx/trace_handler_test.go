package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func captureLog(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()

	var buf bytes.Buffer

	logger := slog.New(NewTraceHandler(slog.NewJSONHandler(&buf, nil)))
	logger.InfoContext(ctx, "editor command sent", "command", "IMPORT_ASSET")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	return entry
}

func TestTraceHandler_NoSpanContext(t *testing.T) {
	entry := captureLog(t, context.Background())

	require.NotContains(t, entry, "trace_id")
	require.NotContains(t, entry, "span_id")
	require.Equal(t, "editor command sent", entry["msg"])
	require.Equal(t, "IMPORT_ASSET", entry["command"])
}

func TestTraceHandler_WithSpanContext(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	entry := captureLog(t, ctx)

	require.Equal(t, traceID.String(), entry["trace_id"])
	require.Equal(t, spanID.String(), entry["span_id"])
}

func TestTraceHandler_NilHandlerPanics(t *testing.T) {
	require.Panics(t, func() { NewTraceHandler(nil) })
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	require.Equal(t, slog.Default(), LoggerFromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, LoggerFromContext(ctx))
}
