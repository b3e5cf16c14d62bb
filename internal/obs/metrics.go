// Package observability wires the demo pool server's Prometheus metrics
// and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PoolStats is the subset of respool.Stats the metrics collector needs.
// Defined locally (rather than importing respool) so this package stays
// independent of any particular resource type parameter.
type PoolStats struct {
	Idle   int
	Max    int
	Closed bool
}

// Metrics is a centralized interface for the pool server's Prometheus
// metrics: point-in-time occupancy gauges plus counters/histograms for
// acquire outcomes and latency.
//
// Usage:
//
//	m := observability.NewMetrics()
//	s := pool.Stats()
//	m.ObservePoolStats(observability.PoolStats{Idle: s.Idle, Max: s.Max, Closed: s.Closed})
//	m.RecordAcquire("success", time.Since(start))
type Metrics struct {
	// PoolIdle tracks the current number of idle (reusable) resources.
	PoolIdle prometheus.Gauge

	// PoolMax tracks the pool's configured capacity.
	PoolMax prometheus.Gauge

	// PoolClosed is 1 once the pool has begun shutting down, 0 otherwise.
	PoolClosed prometheus.Gauge

	// AcquireCounter counts Acquire outcomes.
	// Labels: outcome, a caller-chosen string (respoolsrv's acquire loop
	// records success|error)
	AcquireCounter *prometheus.CounterVec

	// AcquireDuration measures Acquire latency in seconds, across all
	// outcomes.
	AcquireDuration prometheus.Histogram

	// ResourcesCreated counts resources the factory has produced.
	ResourcesCreated prometheus.Counter

	// ResourcesDestroyed counts resources closed by release, eviction, or
	// shutdown.
	// Labels: reason (unhealthy|expired|rejected|shutdown)
	ResourcesDestroyed *prometheus.CounterVec

	// MaintenanceSweeps counts completed maintenance-loop passes.
	MaintenanceSweeps prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics with the
// default registry. Call once at server startup.
func NewMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// newMetrics builds the metric set against the given promauto factory, so
// tests can register against an isolated prometheus.Registry instead of
// the process-global default registerer.
func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		PoolIdle: factory.NewGauge(prometheus.GaugeOpts{
			Name: "respool_idle_resources",
			Help: "Current number of idle, reusable resources in the pool",
		}),

		PoolMax: factory.NewGauge(prometheus.GaugeOpts{
			Name: "respool_max_resources",
			Help: "Configured maximum number of concurrently checked-out resources",
		}),

		PoolClosed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "respool_closed",
			Help: "1 if the pool has begun shutting down, 0 otherwise",
		}),

		AcquireCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "respool_acquire_total",
				Help: "Total number of Acquire calls by outcome",
			},
			[]string{"outcome"},
		),

		AcquireDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "respool_acquire_duration_seconds",
			Help:    "Duration of Acquire calls in seconds, across all outcomes",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		ResourcesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "respool_resources_created_total",
			Help: "Total number of resources produced by the factory",
		}),

		ResourcesDestroyed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "respool_resources_destroyed_total",
				Help: "Total number of resources closed, by reason",
			},
			[]string{"reason"},
		),

		MaintenanceSweeps: factory.NewCounter(prometheus.CounterOpts{
			Name: "respool_maintenance_sweeps_total",
			Help: "Total number of completed maintenance-loop passes",
		}),
	}
}

// ObservePoolStats updates the occupancy gauges from a point-in-time
// snapshot. Intended to be called on a short ticker by the demo server.
func (m *Metrics) ObservePoolStats(s PoolStats) {
	m.PoolIdle.Set(float64(s.Idle))
	m.PoolMax.Set(float64(s.Max))
	if s.Closed {
		m.PoolClosed.Set(1)
	} else {
		m.PoolClosed.Set(0)
	}
}

// RecordAcquire records the outcome and latency of one Acquire call.
func (m *Metrics) RecordAcquire(outcome string, d time.Duration) {
	m.AcquireCounter.WithLabelValues(outcome).Inc()
	m.AcquireDuration.Observe(d.Seconds())
}

// RecordResourceCreated increments the creation counter.
func (m *Metrics) RecordResourceCreated() {
	m.ResourcesCreated.Inc()
}

// RecordResourceDestroyed increments the destruction counter for reason.
func (m *Metrics) RecordResourceDestroyed(reason string) {
	m.ResourcesDestroyed.WithLabelValues(reason).Inc()
}

// RecordMaintenanceSweep increments the maintenance-pass counter.
func (m *Metrics) RecordMaintenanceSweep() {
	m.MaintenanceSweeps.Inc()
}
