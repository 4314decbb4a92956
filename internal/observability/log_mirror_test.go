package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestIsSilentRequest(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []any
		want bool
	}{
		{name: "health check", msg: "http request", args: []any{"method", "GET", "path", "/healthz"}, want: true},
		{name: "metrics scrape", msg: "http request", args: []any{"path", "/metrics"}, want: true},
		{name: "api request", msg: "http request", args: []any{"path", "/v1/entries"}, want: false},
		{name: "other event", msg: "competition completed", args: []any{"path", "/healthz"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSilentRequest(tt.msg, tt.args); got != tt.want {
				t.Fatalf("isSilentRequest=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestLogEventName(t *testing.T) {
	if got := logEventName("Competition winner  determined"); got != "pushup.competition_winner_determined" {
		t.Fatalf("unexpected event name %q", got)
	}
}

func TestLogAttributes_DomainKeys(t *testing.T) {
	attrs := logAttributes([]any{
		"competition_id", "comp-7",
		"winner_user_id", "alice",
		"winner_total", 120,
		"user_id", "bob",
		"steps", 3,
		"dangling",
	})

	want := map[string]otellog.Value{
		"pushup.competition.id":             otellog.StringValue("comp-7"),
		"pushup.competition.winner.user_id": otellog.StringValue("alice"),
		"pushup.competition.winner.total":   otellog.IntValue(120),
		"enduser.id":                        otellog.StringValue("bob"),
		"pushup.steps":                      otellog.IntValue(3),
		"pushup.dangling":                   {},
	}
	if len(attrs) != len(want) {
		t.Fatalf("expected %d attributes, got %d", len(want), len(attrs))
	}
	for _, attr := range attrs {
		expected, ok := want[attr.Key]
		if !ok {
			t.Fatalf("unexpected attribute key %q", attr.Key)
		}
		if !attr.Value.Equal(expected) {
			t.Fatalf("attribute %s: got %v want %v", attr.Key, attr.Value, expected)
		}
	}
}

func TestLogValue(t *testing.T) {
	if got := logValue(time.March); got.Kind() != otellog.KindInt64 || got.AsInt64() != 3 {
		t.Fatalf("month: got %s", got.Kind())
	}
	if got := logValue(1500 * time.Millisecond).AsString(); got != "1.5s" {
		t.Fatalf("duration: got %q", got)
	}
	if got := logValue(errors.New("boom")).AsString(); got != "boom" {
		t.Fatalf("error: got %q", got)
	}
	if got := logValue([]string{"competitions.ensure", "competitions.refresh"}); got.Kind() != otellog.KindSlice || len(got.AsSlice()) != 2 {
		t.Fatalf("slice: got %s", got.Kind())
	}
	if got := logValue(struct{ N int }{N: 4}).AsString(); got != "{4}" {
		t.Fatalf("fallback: got %q", got)
	}
}

func TestOTelSeverity(t *testing.T) {
	cases := map[zapcore.Level]otellog.Severity{
		zapcore.DebugLevel: otellog.SeverityDebug,
		zapcore.WarnLevel:  otellog.SeverityWarn,
		zapcore.ErrorLevel: otellog.SeverityError,
		zapcore.PanicLevel: otellog.SeverityFatal,
	}
	for level, want := range cases {
		if got := otelSeverity(level); got != want {
			t.Fatalf("%s: got %v want %v", level, got, want)
		}
	}
}
