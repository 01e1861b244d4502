package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PromMetrics struct {
	written          *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	forwarded        prometheus.Counter
	forwardFailed    prometheus.Counter
	dashboardLatency *prometheus.HistogramVec
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_tasks_written_total",
			Help: "Number of task writes by operation",
		}, []string{"op"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_slot_conflicts_total",
			Help: "Number of writes rejected because the slot was already booked",
		}, []string{"op"}),
		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agenda_events_forwarded_total",
			Help: "Number of domain events forwarded to Kafka",
		}),
		forwardFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agenda_events_forward_failed_total",
			Help: "Number of domain events that failed to reach Kafka",
		}),
		dashboardLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agenda_dashboard_latency_seconds",
			Help:    "Latency of dashboard computations",
			Buckets: prometheus.DefBuckets,
		}, []string{"period"}),
	}
	reg.MustRegister(m.written, m.conflicts, m.forwarded, m.forwardFailed, m.dashboardLatency)
	return m
}

func (m *PromMetrics) TaskWritten(op string) {
	m.written.WithLabelValues(op).Inc()
}
func (m *PromMetrics) SlotConflict(op string) {
	m.conflicts.WithLabelValues(op).Inc()
}
func (m *PromMetrics) EventForwarded() {
	m.forwarded.Inc()
}
func (m *PromMetrics) EventForwardFailed() {
	m.forwardFailed.Inc()
}
func (m *PromMetrics) DashboardServed(period string, d time.Duration) {
	m.dashboardLatency.WithLabelValues(period).Observe(d.Seconds())
}
