package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. Label sets are small closed enums so cardinality stays
// bounded; HTTP-level collectors live in the middleware package.
var (
	// UpstreamAttempts counts provider calls by outcome:
	// success, retry, terminal, canceled.
	UpstreamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptgear_upstream_attempts_total",
			Help: "Upstream provider attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// UpstreamLatency records per-attempt latency in seconds by HTTP status
	// class (2xx, 4xx, 5xx, transport).
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptgear_upstream_attempt_duration_seconds",
			Help:    "Duration of upstream provider attempts in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 45},
		},
		[]string{"class"},
	)

	// CacheLookups counts transform cache lookups by result: hit, miss, error.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptgear_cache_lookups_total",
			Help: "Transform cache lookups by result.",
		},
		[]string{"result"},
	)

	// Transforms counts completed transform requests by source:
	// mock, cache, upstream, error.
	Transforms = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptgear_transforms_total",
			Help: "Completed transform requests by source.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(UpstreamAttempts, UpstreamLatency, CacheLookups, Transforms)
}

// StatusClass maps an HTTP status to the UpstreamLatency label.
func StatusClass(status int) string {
	switch {
	case status <= 0:
		return "transport"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
