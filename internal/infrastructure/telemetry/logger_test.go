package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestTraceContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.OTLPConfig{ServiceName: "cart-api", Environment: "test"}, slog.LevelInfo)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	ctx = WithRequestInfo(ctx, RequestInfo{Path: "/cart", RequestID: "req-1", UserID: "u1"})
	logger.InfoContext(ctx, "hello")
	span.End()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
	assert.Equal(t, "/cart", record["url.path"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "u1", record["user_id"])
	assert.Equal(t, "cart-api", record["service.name"])
}

func TestTraceContextHandler_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.OTLPConfig{}, slog.LevelInfo)
	logger.Debug("dropped")
	logger.Info("kept")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "user_id")
}
