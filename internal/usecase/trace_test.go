package usecase

import (
	"context"
	"testing"
)

func TestPeriodAttrs(t *testing.T) {
	if attrs := periodAttrs(0, 0); len(attrs) != 0 {
		t.Fatalf("expected no attributes for an unfiltered period, got %v", attrs)
	}
	attrs := periodAttrs(0, 3)
	if len(attrs) != 1 || attrs[0].Key != "pushup.period.month" || attrs[0].Value.AsInt64() != 3 {
		t.Fatalf("unexpected month-only attributes %v", attrs)
	}
	if attrs := periodAttrs(2024, 12); len(attrs) != 2 {
		t.Fatalf("expected year and month, got %v", attrs)
	}
}

func TestStartUsecaseSpan_UntracedContext(t *testing.T) {
	ctx := context.Background()
	got, span := startUsecaseSpan(ctx, "usecase.EntryService.GetEntry", entryAttr("e1"))
	if got != ctx || span != usecaseNoopSpan {
		t.Fatalf("expected noop span outside a request span")
	}
}
