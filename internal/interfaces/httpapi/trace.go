package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer = otel.Tracer("github.com/andrei73/pushup-counter/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// startSpan opens child spans for handlers only. Middleware and response helpers share the request span
// and get a noop span back. Handler spans carry the authenticated actor.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !isHandlerSpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(actorAttributes(ctx)...))
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix)
}

func actorAttributes(ctx context.Context) []attribute.KeyValue {
	actor, ok := actorFromContext(ctx)
	if !ok || actor.UserID == "" {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("enduser.id", actor.UserID),
		attribute.Bool("pushup.actor.elevated", actor.Elevated),
	}
}
