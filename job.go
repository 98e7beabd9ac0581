package workerpool

import (
	"context"
	"errors"
)

var (
	// ErrNoReceiver is returned by Send when no receiver is alive.
	// The item was not queued.
	ErrNoReceiver = errors.New("channel: no receiver")

	// ErrNoSender is returned by Recv when the queue is empty and every
	// sender has been closed.
	ErrNoSender = errors.New("channel: no sender")

	// ErrSenderClosed is returned when Send is called on a closed Sender.
	ErrSenderClosed = errors.New("channel: sender closed")

	// ErrReceiverClosed is returned when Recv is called on a closed Receiver.
	ErrReceiverClosed = errors.New("channel: receiver closed")

	// ErrInvalidPoolConfig is returned by NewPool for a worker count below one.
	ErrInvalidPoolConfig = errors.New("workerpool: worker count must be at least 1")

	// ErrPoolClosed is returned for submissions after Shutdown started.
	ErrPoolClosed = errors.New("workerpool: pool closed")

	// ErrNilFunc is returned when a submitted Job has a nil Fn.
	ErrNilFunc = errors.New("workerpool: job func is nil")
)

// JobFunc is the work a job performs. The context is the one carried in
// the job's meta, or context.Background.
type JobFunc func(ctx context.Context) error

// Job represents a single unit of work submitted to the pool.
//
// Fn captures whatever state it needs. Errors returned by Fn are the
// job's own business: the pool reports them through Options.OnJobError
// and the job's Completion, and keeps running.
type Job struct {
	Name string
	Fn   JobFunc
	Meta *JobMeta
}

// JobMeta carries optional per-job settings.
type JobMeta struct {
	Ctx         context.Context
	CleanupFunc func()
}

func (j Job) ctx() context.Context {
	if j.Meta != nil && j.Meta.Ctx != nil {
		return j.Meta.Ctx
	}
	return context.Background()
}

// messageKind tags what a worker should do with a message.
type messageKind uint8

const (
	msgExecute messageKind = iota
	msgShutdown
)

// message is the item type carried by the pool's channel.
type message struct {
	kind messageKind
	job  Job
	done *Completion
}
