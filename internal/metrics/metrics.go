// Package metrics defines the Prometheus instrumentation for the
// routing service. The constructor shape — accepting a
// prometheus.Registerer that falls back to the default registry when
// nil — is grounded on
// IvanBrykalov-shardcache/metrics/prom/prom.go:New. The metric names,
// labels, and histogram bucket boundaries are grounded on the original
// prototype's route_engine/app/metrics.py.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the process-wide counters and histograms emitted by
// the route orchestrator.
type Metrics struct {
	Requests *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Expanded prometheus.Histogram
}

// New registers and returns the service's metrics against reg. A nil
// reg registers against prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_requests_total",
			Help: "Total number of route requests handled, labeled by city, whether the search degraded, and cache hit status.",
		}, []string{"city", "degraded", "cache_hit"}),

		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "route_failures_total",
			Help: "Total number of route requests that ended in an error response, labeled by city and failure reason.",
		}, []string{"city", "reason"}),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "route_duration_seconds",
			Help:    "End-to-end latency of a route request, in seconds.",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1, 1.5, 2, 2.5, 3, 4, 5, 10},
		}, []string{"city"}),

		Expanded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "astar_expanded_nodes",
			Help:    "Number of nodes expanded per route request (A* plus any fallback search).",
			Buckets: []float64{10, 50, 100, 200, 400, 800, 1600, 3200, 6400},
		}),
	}

	reg.MustRegister(m.Requests, m.Failures, m.Duration, m.Expanded)

	return m
}

// ObserveRequest records a completed route request.
func (m *Metrics) ObserveRequest(city string, degraded, cacheHit bool, seconds float64) {
	m.Requests.WithLabelValues(city, boolLabel(degraded), boolLabel(cacheHit)).Inc()
	m.Duration.WithLabelValues(city).Observe(seconds)
}

// ObserveFailure records a request that ended in an error response.
// Per spec.md §9, this must only be called on the final error path —
// never for a successful response that merely used the fallback
// search or degraded early.
func (m *Metrics) ObserveFailure(city, reason string) {
	m.Failures.WithLabelValues(city, reason).Inc()
}

// ObserveExpanded records how many nodes a request's search expanded:
// the A* run plus, when it ran, the fallback search.
func (m *Metrics) ObserveExpanded(n int) {
	m.Expanded.Observe(float64(n))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
