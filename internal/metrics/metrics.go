// Package metrics exposes Prometheus metrics for the test engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Test execution metrics
	TestExecutionsTotal   *prometheus.CounterVec
	TestExecutionDuration prometheus.Histogram

	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsStopped prometheus.Counter
	SessionsEvicted prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		TestExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "test_executions_total",
				Help: "Total number of executed test cases by outcome",
			},
			[]string{"outcome"},
		),
		TestExecutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "test_execution_duration_seconds",
				Help:    "Duration of test case executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		SessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_total",
				Help: "Total number of test sessions created",
			},
		),
		SessionsStopped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_stopped_total",
				Help: "Total number of sessions stopped before completion",
			},
		),
		SessionsEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_evicted_total",
				Help: "Total number of finished sessions evicted by retention",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.TestExecutionsTotal)
	m.registry.MustRegister(m.TestExecutionDuration)
	m.registry.MustRegister(m.SessionsTotal)
	m.registry.MustRegister(m.SessionsStopped)
	m.registry.MustRegister(m.SessionsEvicted)
}

// ObserveResult records one executed test case.
func (m *Metrics) ObserveResult(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.TestExecutionsTotal.WithLabelValues(outcome).Inc()
	m.TestExecutionDuration.Observe(durationSeconds)
}

// IncSessions records a created session.
func (m *Metrics) IncSessions() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
}

// IncStopped records a stop request.
func (m *Metrics) IncStopped() {
	if m == nil {
		return
	}
	m.SessionsStopped.Inc()
}

// AddEvicted records retention evictions.
func (m *Metrics) AddEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsEvicted.Add(float64(n))
}

// RegisterActiveSessions binds a live session gauge to the given reader.
func (m *Metrics) RegisterActiveSessions(read func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of currently active sessions",
		},
		read,
	))
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
