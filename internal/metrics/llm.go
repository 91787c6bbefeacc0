package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trailsearch",
			Name:      "llm_requests_total",
			Help:      "Total number of streamed completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trailsearch",
			Name:      "llm_time_to_stream_seconds",
			Help:      "Time until the completion stream opened",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	LLMErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trailsearch",
			Name:      "llm_errors_total",
			Help:      "Total completion errors by class",
		},
		[]string{"provider", "model", "error_type"},
	)

	LLMRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trailsearch",
			Name:      "llm_retries_total",
			Help:      "Retries of transient completion failures",
		},
		[]string{"strategy"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trailsearch",
			Name:      "tool_calls_total",
			Help:      "Tool calls executed on behalf of the model",
		},
		[]string{"strategy", "status"},
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers Prometheus LLM metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMErrorsTotal)
	prometheus.MustRegister(LLMRetriesTotal)
	prometheus.MustRegister(ToolCallsTotal)
	llmMetricsRegistered = true
}
