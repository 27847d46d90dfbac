package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_batches_total",
			Help: "Total number of batch runs by backend and terminal status.",
		},
		[]string{"backend", "status"},
	)

	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_tasks_total",
			Help: "Total number of task results by status.",
		},
		[]string{"status"},
	)

	batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_batch_duration_seconds",
			Help:    "Batch execution duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(batchesTotal)
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(batchDuration)
}
