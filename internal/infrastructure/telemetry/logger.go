package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	"go.opentelemetry.io/otel/trace"
)

type contextKey struct{}

// RequestInfo is the request-scoped data attached to every log record. Path
// is the raw URL path, captured before the router resolves a pattern.
type RequestInfo struct {
	Path      string
	RequestID string
	UserID    string
}

// WithRequestInfo stores info in the context
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// RequestInfoFromContext returns the request info stored in ctx, if any
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(contextKey{}).(RequestInfo)
	return info, ok
}

// traceContextHandler is a custom slog handler that injects trace context
type traceContextHandler struct {
	handler slog.Handler
}

// Enabled reports whether the handler handles records at the given level
func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds the trace context and request info to log records
func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	// Add trace context if available
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}

	if info, ok := RequestInfoFromContext(ctx); ok {
		if info.Path != "" {
			r.AddAttrs(slog.String("url.path", info.Path))
		}
		if info.RequestID != "" {
			r.AddAttrs(slog.String("request_id", info.RequestID))
		}
		if info.UserID != "" {
			r.AddAttrs(slog.String("user_id", info.UserID))
		}
	}

	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with additional attributes
func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{
		handler: h.handler.WithAttrs(attrs),
	}
}

// WithGroup returns a new handler with the given group name
func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{
		handler: h.handler.WithGroup(name),
	}
}

// newLogger builds the service logger: JSON records on w, enriched with trace
// context and request info
func newLogger(w io.Writer, cfg *config.OTLPConfig, level slog.Level) *slog.Logger {
	handler := &traceContextHandler{
		handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	}

	return slog.New(handler).With(
		slog.String("service.name", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
