package workerpool

import (
	"context"
	"sync"
	"time"
)

// Completion tracks one job submitted with Pool.Submit.
//
// It is resolved exactly once, when the job finishes, panics, or is
// discarded.
type Completion struct {
	done chan struct{}
	once sync.Once

	queuedAt   time.Time
	startedAt  time.Time
	finishedAt time.Time
	err        error
}

func newCompletion() *Completion {
	return &Completion{
		done:     make(chan struct{}),
		queuedAt: time.Now(),
	}
}

func (c *Completion) start() {
	if c != nil {
		c.startedAt = time.Now()
	}
}

func (c *Completion) resolve(err error) {
	if c == nil {
		return
	}
	c.once.Do(func() {
		c.err = err
		c.finishedAt = time.Now()
		close(c.done)
	})
}

// Done is closed when the job has finished.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Wait blocks until the job finishes or ctx ends, and returns the job's
// error or the context error.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the job's error. It is nil until Done is closed.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Latency returns the time from submission to completion, or zero if the
// job has not finished.
func (c *Completion) Latency() time.Duration {
	select {
	case <-c.done:
		return c.finishedAt.Sub(c.queuedAt)
	default:
		return 0
	}
}

// QueueDelay returns how long the job waited before a worker picked it up.
func (c *Completion) QueueDelay() time.Duration {
	select {
	case <-c.done:
		if c.startedAt.IsZero() {
			return 0
		}
		return c.startedAt.Sub(c.queuedAt)
	default:
		return 0
	}
}
