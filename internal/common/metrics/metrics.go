// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "acquisition_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "acquisition_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RecommendationsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_recommendations_total",
			Help: "Recommendations issued by label and status",
		},
		[]string{"label", "status"},
	)

	ConflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_conflicts_detected_total",
			Help: "Source conflicts detected by type, severity and resolution",
		},
		[]string{"type", "severity", "resolved"},
	)

	DecisionScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "acquisition_decision_score",
			Help:    "Distribution of composite decision scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acquisition_cache_lookups_total",
			Help: "Recommendation lookups by result (hit, miss, error, store)",
		},
		[]string{"result"},
	)

	RecommendationsStored = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "acquisition_recommendations_stored",
			Help: "Recommendations held in postgres by label",
		},
		[]string{"label"},
	)
)
