package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics records the scheduled pruning jobs.
type RetentionMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	pruned   *prometheus.CounterVec
}

func NewRetentionMetrics(reg prometheus.Registerer) *RetentionMetrics {
	if reg == nil {
		return &RetentionMetrics{}
	}
	m := &RetentionMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retention_job_duration_seconds",
			Help:    "Duration of retention jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_job_runs_total",
			Help: "Retention job executions by outcome.",
		}, []string{"job", "outcome"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_rows_pruned_total",
			Help: "Rows deleted by retention jobs.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.runs, m.pruned)
	return m
}

func (m *RetentionMetrics) ObserveRun(job string, d time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(d.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runs.WithLabelValues(job, outcome).Inc()
}

func (m *RetentionMetrics) AddPruned(job string, rows int64) {
	if m == nil || m.pruned == nil || rows <= 0 {
		return
	}
	m.pruned.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
