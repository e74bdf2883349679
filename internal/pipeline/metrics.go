package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidscript_transcription_jobs_started_total",
		Help: "Total number of transcription jobs dispatched",
	})

	jobsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vidscript_transcription_jobs_finished_total",
		Help: "Total number of transcription jobs by terminal status",
	}, []string{"status"})

	jobDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidscript_transcription_job_duration_seconds",
		Help:    "Duration of transcription jobs in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	staleJobsReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidscript_stale_jobs_reaped_total",
		Help: "Total number of stuck processing jobs failed by the reaper",
	})
)

func init() {
	prometheus.MustRegister(jobsStarted)
	prometheus.MustRegister(jobsFinished)
	prometheus.MustRegister(jobDurationSeconds)
	prometheus.MustRegister(staleJobsReaped)
}

func recordJobFinished(status string, started time.Time) {
	jobsFinished.WithLabelValues(status).Inc()
	jobDurationSeconds.Observe(time.Since(started).Seconds())
}
