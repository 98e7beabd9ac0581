package workerpool

import (
	"sync/atomic"
)

// MetricsPolicy defines hooks used by the worker pool to report
// queueing and execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {

	// IncQueued increments the queued jobs counter.
	IncQueued(urgent bool)

	// DecQueued decrements the queued jobs counter when a worker
	// takes a job off the channel.
	DecQueued()

	// IncExecuted increments the executed jobs counter.
	IncExecuted()

	// IncFailed increments the failed jobs counter. A panicking job
	// counts as failed.
	IncFailed()
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	// executed is the total number of jobs processed.
	executed atomic.Uint64

	_ [56]byte // padding to avoid false sharing

	// queued is the current number of jobs enqueued.
	queued atomic.Int64

	urgent atomic.Uint64
	failed atomic.Uint64
}

// Executed returns the total number of executed jobs.
func (m *AtomicMetrics) Executed() uint64 { return m.executed.Load() }

// Queued returns the current number of queued jobs.
func (m *AtomicMetrics) Queued() int64 { return m.queued.Load() }

// Urgent returns the total number of jobs submitted as urgent.
func (m *AtomicMetrics) Urgent() uint64 { return m.urgent.Load() }

// Failed returns the total number of jobs that returned an error or panicked.
func (m *AtomicMetrics) Failed() uint64 { return m.failed.Load() }

func (m *AtomicMetrics) IncQueued(urgent bool) {
	m.queued.Add(1)
	if urgent {
		m.urgent.Add(1)
	}
}

func (m *AtomicMetrics) DecQueued()   { m.queued.Add(-1) }
func (m *AtomicMetrics) IncExecuted() { m.executed.Add(1) }
func (m *AtomicMetrics) IncFailed()   { m.failed.Add(1) }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncQueued(bool) {}
func (m *NoopMetrics) DecQueued()     {}
func (m *NoopMetrics) IncExecuted()   {}
func (m *NoopMetrics) IncFailed()     {}
