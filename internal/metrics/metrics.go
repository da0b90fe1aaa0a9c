// Package metrics holds the Prometheus instruments recorded during a run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	Attempts           *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Iterations         *prometheus.CounterVec
	TargetFailures     *prometheus.CounterVec
	InvokeDuration     *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Attempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uibench_attempts_total",
			Help: "Total number of test attempts",
		},
		[]string{"target", "test"},
	)

	m.ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uibench_validation_failures_total",
			Help: "Total number of attempts whose result failed validation",
		},
		[]string{"target", "test", "reason"},
	)

	m.Iterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uibench_iterations_total",
			Help: "Total number of completed iterations",
		},
		[]string{"target"},
	)

	m.TargetFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uibench_target_failures_total",
			Help: "Total number of targets that could not be benchmarked",
		},
		[]string{"target", "stage"},
	)

	m.InvokeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uibench_invoke_duration_seconds",
			Help:    "Wall-clock duration of in-page benchmark calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"target", "test"},
	)

	m.registry.MustRegister(
		m.Attempts,
		m.ValidationFailures,
		m.Iterations,
		m.TargetFailures,
		m.InvokeDuration,
	)

	return m
}

// RecordAttempt counts one attempt and its call duration.
func (m *Metrics) RecordAttempt(target, test string, elapsed time.Duration) {
	m.Attempts.WithLabelValues(target, test).Inc()
	m.InvokeDuration.WithLabelValues(target, test).Observe(elapsed.Seconds())
}

// RecordValidationFailure counts an attempt rejected for reason.
func (m *Metrics) RecordValidationFailure(target, test, reason string) {
	m.ValidationFailures.WithLabelValues(target, test, reason).Inc()
}

// RecordIteration counts a completed iteration.
func (m *Metrics) RecordIteration(target string) {
	m.Iterations.WithLabelValues(target).Inc()
}

// RecordTargetFailure counts a target abandoned at stage.
func (m *Metrics) RecordTargetFailure(target, stage string) {
	m.TargetFailures.WithLabelValues(target, stage).Inc()
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
