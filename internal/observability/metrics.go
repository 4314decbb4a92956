package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "pushup"

// Metrics owns a dedicated registry so tests and multiple routers never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	authRejections *prometheus.CounterVec

	entriesRecorded prometheus.Counter
	pushupsRecorded prometheus.Counter
	transitions     *prometheus.CounterVec
	winners         prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auth_rejections_total",
			Help:      "Requests rejected as unauthenticated or rate limited.",
		}, []string{"reason"}),
		entriesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "entries_recorded_total",
			Help:      "Pushup entries recorded.",
		}),
		pushupsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pushups_recorded_total",
			Help:      "Sum of pushup counts across recorded entries.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "competition_transitions_total",
			Help:      "Competition status transitions.",
		}, []string{"from", "to"}),
		winners: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "competition_winners_total",
			Help:      "Competition winners determined.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.authRejections,
		m.entriesRecorded,
		m.pushupsRecorded,
		m.transitions,
		m.winners,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())

	switch status {
	case http.StatusUnauthorized:
		m.authRejections.WithLabelValues("unauthorized").Inc()
	case http.StatusTooManyRequests:
		m.authRejections.WithLabelValues("rate_limited").Inc()
	}
}

func (m *Metrics) EntryRecorded(count int) {
	m.entriesRecorded.Inc()
	if count > 0 {
		m.pushupsRecorded.Add(float64(count))
	}
}

func (m *Metrics) CompetitionTransitioned(from, to competition.Status) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) WinnerDetermined() {
	m.winners.Inc()
}
