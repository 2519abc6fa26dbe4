package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobStageLatencyMs) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "photo_jobs_processed_total",
		Help: "Total number of photo jobs processed, labeled by terminal status.",
	},
	[]string{"status"}, // 'done', 'error'
)

var jobStageLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "photo_job_stage_latency_ms",
		Help:    "Pipeline stage latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	},
	[]string{"stage"},
)

func IncJob(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStage(stage string, ms float64) {
	jobStageLatencyMs.WithLabelValues(norm(stage)).Observe(ms)
}
