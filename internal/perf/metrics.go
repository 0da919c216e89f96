package perf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for repository operations.
//
// Metrics:
//   - taskhub_operation_duration_seconds{entity,operation,outcome} - Histogram of operation times
//   - taskhub_operation_failures_total{entity,operation} - Count of failed operations
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	FailuresTotal     *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskhub_operation_duration_seconds",
				Help:    "Duration of repository operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"entity", "operation", "outcome"}, // outcome: "success" or "failure"
		),
		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_operation_failures_total",
				Help: "Total number of failed repository operations",
			},
			[]string{"entity", "operation"},
		),
	}
}

// observe records one operation.
func (m *Metrics) observe(r Record) {
	outcome := "success"
	if !r.Success {
		outcome = "failure"
		m.FailuresTotal.WithLabelValues(r.Entity, r.Operation).Inc()
	}
	m.OperationDuration.WithLabelValues(r.Entity, r.Operation, outcome).Observe(r.Duration.Seconds())
}
