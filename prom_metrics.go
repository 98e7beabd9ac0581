package workerpool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics is a MetricsPolicy that exports pool activity as
// Prometheus collectors.
type PromMetrics struct {
	queued   prometheus.Gauge
	enqueued *prometheus.CounterVec
	executed prometheus.Counter
	failed   prometheus.Counter
}

// NewPromMetrics creates the collectors under namespace and registers
// them with reg.
func NewPromMetrics(reg prometheus.Registerer, namespace string) (*PromMetrics, error) {
	m := &PromMetrics{
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "queued_jobs",
			Help:      "Number of jobs waiting in the priority channel.",
		}),
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "enqueued_jobs_total",
			Help:      "Jobs submitted to the pool by tier.",
		}, []string{"tier"}),
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "executed_jobs_total",
			Help:      "Jobs run to completion by a worker.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "failed_jobs_total",
			Help:      "Jobs that returned an error or panicked.",
		}),
	}
	for _, c := range []prometheus.Collector{m.queued, m.enqueued, m.executed, m.failed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PromMetrics) IncQueued(urgent bool) {
	m.queued.Inc()
	if urgent {
		m.enqueued.WithLabelValues("urgent").Inc()
	} else {
		m.enqueued.WithLabelValues("normal").Inc()
	}
}

func (m *PromMetrics) DecQueued()   { m.queued.Dec() }
func (m *PromMetrics) IncExecuted() { m.executed.Inc() }
func (m *PromMetrics) IncFailed()   { m.failed.Inc() }
