package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dossiers"

// CronJobMetrics tracks scheduled job executions and how many records each run touched.
type CronJobMetrics struct {
	duration  *prometheus.HistogramVec
	runs      *prometheus.CounterVec
	processed *prometheus.CounterVec
}

// NewCronJobMetrics registers the cron collectors. A nil registerer yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Duration of cron job runs in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "records_processed_total",
			Help:      "Records modified by cron jobs.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.runs, m.processed)
	return m
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	c.incRun(job, "success")
}

func (c *CronJobMetrics) IncFailure(job string) {
	c.incRun(job, "failure")
}

// AddProcessed counts records a job changed during one run.
func (c *CronJobMetrics) AddProcessed(job string, n int) {
	if c == nil || c.processed == nil || n <= 0 {
		return
	}
	c.processed.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}

func (c *CronJobMetrics) incRun(job, outcome string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), outcome).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
