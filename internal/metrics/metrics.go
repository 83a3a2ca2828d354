package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmbeat_jobs_total",
			Help: "Scheduled job runs by job name and outcome",
		},
		[]string{"job", "status"}, // ok|error
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmbeat_job_duration_seconds",
			Help:    "Scheduled job run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8), // 10ms .. ~2.7m
		},
		[]string{"job"},
	)

	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmbeat_tasks_total",
			Help: "Queued task outcomes by task name and status",
		},
		[]string{"task", "status"}, // succeeded|failed|retried
	)

	CustomersPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crmbeat_customers_purged_total",
			Help: "Inactive customers deleted by the cleanup job",
		},
	)

	PurgesArchived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crmbeat_purges_archived_total",
			Help: "Purge events written to the ClickHouse archive",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		JobsTotal,
		JobDuration,
		TasksTotal,
		CustomersPurged,
		PurgesArchived,
	)
}
