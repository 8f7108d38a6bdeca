package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls metric collection.
type Config struct {
	Enabled   bool
	Namespace string
}

// Metrics records wizard and collaborator activity. A disabled Metrics is a
// valid no-op; every recorder checks for a nil collector.
type Metrics struct {
	serviceCalls     *prometheus.CounterVec
	serviceLatency   *prometheus.HistogramVec
	validationErrors *prometheus.CounterVec
	staleDiscarded   *prometheus.CounterVec
	busyRejections   *prometheus.CounterVec
	runsRecorded     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors on a private registry.
func New(cfg Config) *Metrics {
	if !cfg.Enabled {
		return &Metrics{}
	}
	ns := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		serviceCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "service_calls_total",
				Help:      "Training service calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		serviceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "service_call_duration_seconds",
				Help:      "Training service call latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		validationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "validation_rejections_total",
				Help:      "Configurations rejected before submission, by rule",
			},
			[]string{"code"},
		),
		staleDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "stale_responses_discarded_total",
				Help:      "Side-fetch responses dropped because the target changed",
			},
			[]string{"operation"},
		),
		busyRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "busy_rejections_total",
				Help:      "Requests refused because one was already in flight",
			},
			[]string{"operation"},
		),
		runsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "runs_recorded_total",
				Help:      "Training runs written to history",
			},
			[]string{"task_type", "outcome"},
		),
	}

	registry.MustRegister(
		m.serviceCalls,
		m.serviceLatency,
		m.validationErrors,
		m.staleDiscarded,
		m.busyRejections,
		m.runsRecorded,
	)
	return m
}

// RecordServiceCall counts one collaborator call and observes its latency.
func (m *Metrics) RecordServiceCall(operation, outcome string, d time.Duration) {
	if m == nil || m.serviceCalls == nil {
		return
	}
	m.serviceCalls.WithLabelValues(operation, outcome).Inc()
	m.serviceLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) RecordValidationRejection(code string) {
	if m == nil || m.validationErrors == nil {
		return
	}
	m.validationErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordStaleDiscard(operation string) {
	if m == nil || m.staleDiscarded == nil {
		return
	}
	m.staleDiscarded.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordBusy(operation string) {
	if m == nil || m.busyRejections == nil {
		return
	}
	m.busyRejections.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordRun(taskType, outcome string) {
	if m == nil || m.runsRecorded == nil {
		return
	}
	m.runsRecorded.WithLabelValues(taskType, outcome).Inc()
}

// Registry exposes the underlying registry; nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Router mounts Handler at /metrics with a liveness route at /healthz.
func (m *Metrics) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", m.Handler())
	return r
}
