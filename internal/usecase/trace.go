package usecase

import (
	"context"

	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer   = otel.Tracer("github.com/andrei73/pushup-counter/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan only opens a child span under a sampled request span, so CLI runs stay untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func userAttr(userID string) attribute.KeyValue {
	return attribute.String("enduser.id", userID)
}

func actorAttrs(actor pushup.Actor) []attribute.KeyValue {
	return []attribute.KeyValue{userAttr(actor.UserID), attribute.Bool("pushup.actor.elevated", actor.Elevated)}
}

func entryAttr(entryID string) attribute.KeyValue {
	return attribute.String("pushup.entry.id", entryID)
}

func competitionAttr(competitionID string) attribute.KeyValue {
	return attribute.String("pushup.competition.id", competitionID)
}

// periodAttrs tags month-scoped reads; zero values mean "not filtered" and are left off.
func periodAttrs(year, month int) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if year > 0 {
		attrs = append(attrs, attribute.Int("pushup.period.year", year))
	}
	if month > 0 {
		attrs = append(attrs, attribute.Int("pushup.period.month", month))
	}
	return attrs
}

func jobAttrs(jobName string, run JobRun) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pushup.job.name", jobName),
		attribute.String("pushup.job.trigger", run.Trigger),
	}
}
