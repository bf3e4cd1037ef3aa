package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics counts webhook deliveries and what happened to each event.
type PipelineMetrics struct {
	deliveries *prometheus.CounterVec
	admissions *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	actions    *prometheus.CounterVec
	dropped    prometheus.Counter
	duration   prometheus.Histogram
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	m := &PipelineMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Webhook deliveries by result.",
		}, []string{"result"}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_admissions_total",
			Help: "Inbound events by admission outcome.",
		}, []string{"outcome"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_dispatches_total",
			Help: "Workflow engine dispatches by outcome.",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_actions_total",
			Help: "Executed automation actions by type and status.",
		}, []string{"action_type", "status"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_queue_dropped_total",
			Help: "Tasks dropped because the processing queue was full.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_process_duration_seconds",
			Help:    "Time spent processing one webhook entry.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.deliveries, m.admissions, m.dispatches, m.actions, m.dropped, m.duration)
	return m
}

func (m *PipelineMetrics) IncDelivery(result string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *PipelineMetrics) IncAdmission(outcome string) {
	if m == nil || m.admissions == nil {
		return
	}
	m.admissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *PipelineMetrics) IncDispatch(outcome string) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *PipelineMetrics) IncAction(actionType, status string) {
	if m == nil || m.actions == nil {
		return
	}
	m.actions.WithLabelValues(normalizeLabel(actionType), normalizeLabel(status)).Inc()
}

func (m *PipelineMetrics) IncQueueDropped() {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Inc()
}

func (m *PipelineMetrics) ObserveProcess(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
