package cascade

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope every Cascade span is recorded
// under.
const tracerName = "github.com/warlockjs/cascade"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartDriverSpan opens a span around a single driver call; driverpg's Query
// and Exec and driverdoc's Aggregate call it. The returned function must
// be deferred; it ends the span. This is the concrete home for the
// teacher's declared-but-unused otel/trace dependency — see
// SPEC_FULL.md §A.3.
func StartDriverSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := tracer().Start(ctx, "cascade."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}

// SQLSpanAttrs renders the standard attribute set attached to a rendered
// SQL statement span, mirroring the teacher's Sql{Sql, Args, Format, Group}
// struct fields.
func SQLSpanAttrs(sqlText string, paramCount int, group string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("cascade.sql", sqlText),
		attribute.Int("cascade.param_count", paramCount),
		attribute.String("cascade.data_source", group),
	}
}
