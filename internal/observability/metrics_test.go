package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_DomainCounters(t *testing.T) {
	m := NewMetrics()

	m.EntryRecorded(25)
	m.EntryRecorded(15)
	m.CompetitionTransitioned(competition.StatusActive, competition.StatusCompleted)
	m.WinnerDetermined()

	if got := testutil.ToFloat64(m.entriesRecorded); got != 2 {
		t.Fatalf("entries recorded: got %v", got)
	}
	if got := testutil.ToFloat64(m.pushupsRecorded); got != 40 {
		t.Fatalf("pushups recorded: got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("active", "completed")); got != 1 {
		t.Fatalf("transitions: got %v", got)
	}
	if got := testutil.ToFloat64(m.winners); got != 1 {
		t.Fatalf("winners: got %v", got)
	}
}

func TestMetrics_HTTPAndExposition(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest(http.MethodGet, "/v1/entries/{entryID}", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/v1/me/dashboard", http.StatusUnauthorized, time.Millisecond)

	if got := testutil.ToFloat64(m.authRejections.WithLabelValues("unauthorized")); got != 1 {
		t.Fatalf("auth rejections: got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`pushup_http_requests_total{method="GET",route="/v1/entries/{entryID}",status="200"} 1`,
		"pushup_http_request_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}
