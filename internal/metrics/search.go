package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trailsearch",
			Name:      "searches_total",
			Help:      "Completed search sessions by terminal outcome",
		},
		[]string{"strategy", "outcome"}, // outcome: done / degraded / error / canceled
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trailsearch",
			Name:      "search_duration_seconds",
			Help:      "Search session duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trailsearch",
			Name:      "search_results",
			Help:      "Number of trails returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		},
	)

	FallbackTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trailsearch",
			Name:      "fallback_transitions_total",
			Help:      "Fallback controller state transitions",
		},
		[]string{"from", "to", "reason"},
	)

	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trailsearch",
			Name:      "active_streams",
			Help:      "Search sessions currently streaming",
		},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trailsearch",
			Name:      "query_cache_total",
			Help:      "Trail query cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	PoolWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trailsearch",
			Name:      "dataset_pool_wait_seconds",
			Help:      "Time spent waiting for a dataset connection",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 5, 30},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(FallbackTransitionsTotal)
	prometheus.MustRegister(ActiveStreams)
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(PoolWaitSeconds)
	searchMetricsRegistered = true
}
