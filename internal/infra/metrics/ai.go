package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiCallsTotal,
		aiCallsLatencyMs,
		aiRateLimitedTotal,
		analysisPlaceholderTotal,
	)
}

var (
	aiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "Generative model calls per model, labeled by success.",
		},
		[]string{"model", "success"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "Generative model call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000, 60000},
		},
		[]string{"model"},
	)

	aiRateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_rate_limited_total",
			Help: "Model calls rejected with a quota/rate-limit signature.",
		},
		[]string{"model"},
	)

	analysisPlaceholderTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_placeholder_total",
			Help: "Times the offline analysis placeholder was served after chain exhaustion.",
		},
	)
)

func ObserveAICall(model string, success bool, latencyMs float64) {
	aiCallsTotal.WithLabelValues(norm(model), strconv.FormatBool(success)).Inc()
	aiCallsLatencyMs.WithLabelValues(norm(model)).Observe(latencyMs)
}

func IncRateLimited(model string) {
	aiRateLimitedTotal.WithLabelValues(norm(model)).Inc()
}

func IncAnalysisPlaceholder() {
	analysisPlaceholderTotal.Inc()
}
