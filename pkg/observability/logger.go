package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

// TracingHandler is an [slog.Handler] that stamps records with the active
// span's trace_id and span_id. The service, env and mode attributes are bound
// before any group so they stay at the top level of every record.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next with trace context injection and process metadata.
func NewTracingHandler(next slog.Handler, service, env string, mode AppMode) *TracingHandler {
	meta := make([]slog.Attr, 0, 3)
	meta = append(meta, slog.String(attrService, service), slog.String(attrMode, string(mode)))

	if env != "" {
		meta = append(meta, slog.String(attrEnv, env))
	}

	return &TracingHandler{next: next.WithAttrs(meta)}
}

// Enabled reports whether the wrapped handler accepts level.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.next.Enabled(ctx, level)
}

// Handle appends the span identifiers, if any, and forwards the record.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, spanCtx.TraceID().String()),
			slog.String(attrSpanID, spanCtx.SpanID().String()),
		)
	}

	if err := th.next.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: th.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: th.next.WithGroup(name)}
}
