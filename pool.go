package workerpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	lg "github.com/Andrej220/go-utils/zlog"
)

// workerState is the lifecycle of a single worker. Terminated is final.
type workerState int32

const (
	workerRunning workerState = iota
	workerTerminated
)

func (s workerState) String() string {
	switch s {
	case workerRunning:
		return "Running"
	case workerTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

type worker struct {
	id    int
	state atomic.Int32
	done  chan struct{}
}

// Pool is a fixed set of workers consuming jobs from one priority channel.
//
// Execute and Submit are safe for concurrent use and never block on job
// execution.
type Pool struct {
	opts    Options
	workers []*worker

	sender *Sender[message]

	// recv is a single receiver shared by all workers; recvMu serializes
	// access to it.
	recv   *Receiver[message]
	recvMu sync.Mutex

	closed        atomic.Bool
	stopOnce      sync.Once
	wg            sync.WaitGroup
	activeWorkers atomic.Int32
	liveWorkers   atomic.Int32
}

// NewPool starts opts.Workers workers, each blocked waiting for a job.
func NewPool(opts Options) (*Pool, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolConfig, opts.Workers)
	}
	opts.FillDefaults()

	tx, rx := NewChannel[message]()
	p := &Pool{
		opts:    opts,
		workers: make([]*worker, opts.Workers),
		sender:  tx,
		recv:    rx,
	}
	for i := range p.workers {
		w := &worker{id: i, done: make(chan struct{})}
		p.workers[i] = w
		p.wg.Add(1)
		p.liveWorkers.Add(1)
		go p.worker(w)
	}
	return p, nil
}

// Execute queues job and returns without waiting for it to run. Its
// outcome is only visible through Options.OnJobError and whatever the job
// does itself.
func (p *Pool) Execute(job Job, urgent bool) error {
	return p.send(message{kind: msgExecute, job: job}, urgent)
}

// Submit queues job like Execute and returns a Completion that resolves
// when the job has run.
func (p *Pool) Submit(job Job, urgent bool) (*Completion, error) {
	c := newCompletion()
	if err := p.send(message{kind: msgExecute, job: job, done: c}, urgent); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Pool) send(msg message, urgent bool) error {
	if msg.job.Fn == nil {
		return ErrNilFunc
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}
	if err := msg.job.ctx().Err(); err != nil {
		return err
	}
	if err := p.sender.Send(msg, urgent); err != nil {
		if err == ErrSenderClosed {
			return ErrPoolClosed
		}
		return err
	}
	p.opts.Metrics.IncQueued(urgent)
	lg.FromContext(msg.job.ctx()).Info("Job submitted",
		lg.String("job", msg.job.Name),
		lg.Any("urgent", urgent),
	)
	return nil
}

// Shutdown queues one shutdown message per worker behind every job already
// queued, then waits for all workers to exit or for ctx to end.
//
// Jobs submitted concurrently with Shutdown may land behind the shutdown
// messages. Such jobs never run; once every worker has exited their
// Completions resolve with ErrPoolClosed.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.closed.Store(true)
		for range p.workers {
			if err := p.sender.Send(message{kind: msgShutdown}, false); err != nil {
				p.reportInternalError(fmt.Errorf("workerpool: queue shutdown: %w", err))
			}
		}
		go func() {
			p.wg.Wait()
			p.sender.Close()
			p.discardQueued()
			p.recv.Close()
		}()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the pool down and waits for every worker.
func (p *Pool) Stop() { _ = p.Shutdown(context.Background()) }

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return len(p.workers) }

// LiveWorkers returns how many workers have not terminated yet.
func (p *Pool) LiveWorkers() int32 { return p.liveWorkers.Load() }

// ActiveWorkers returns how many workers are running a job right now.
func (p *Pool) ActiveWorkers() int32 { return p.activeWorkers.Load() }

func (p *Pool) workerStates() []workerState {
	states := make([]workerState, len(p.workers))
	for i, w := range p.workers {
		states[i] = workerState(w.state.Load())
	}
	return states
}

// QueueLength returns the number of queued messages, shutdown messages
// included.
func (p *Pool) QueueLength() int { return p.sender.Len() }

// discardQueued drains what is left after the workers exited. The sender
// must already be closed.
func (p *Pool) discardQueued() {
	for {
		msg, err := p.recv.Recv()
		if err != nil {
			return
		}
		if msg.kind != msgExecute {
			continue
		}
		p.opts.Metrics.DecQueued()
		lg.FromContext(msg.job.ctx()).Warn("Job discarded", lg.String("job", msg.job.Name))
		msg.done.resolve(ErrPoolClosed)
	}
}

func (p *Pool) receive() (message, error) {
	p.recvMu.Lock()
	defer p.recvMu.Unlock()
	return p.recv.Recv()
}

func (p *Pool) worker(w *worker) {
	defer p.wg.Done()
	defer close(w.done)
	defer p.liveWorkers.Add(-1)
	defer w.state.Store(int32(workerTerminated))

	logger := lg.FromContext(context.Background()).With(lg.Int("worker", w.id))

	if p.opts.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	if p.opts.PinWorkers {
		if err := PinToCPU(w.id % runtime.NumCPU()); err != nil {
			p.reportInternalError(fmt.Errorf("workerpool: pin worker %d: %w", w.id, err))
		}
	}

	for {
		msg, err := p.receive()
		if err != nil {
			// Only reachable when every sender is gone without a
			// shutdown message reaching this worker.
			logger.Error("Worker receive failed", lg.Any("error", err))
			p.reportInternalError(fmt.Errorf("workerpool: worker %d: %w", w.id, err))
			return
		}
		switch msg.kind {
		case msgShutdown:
			logger.Info("Worker shutting down")
			return
		case msgExecute:
			p.opts.Metrics.DecQueued()
			p.processJob(w, msg)
		}
	}
}

func (p *Pool) processJob(w *worker, msg message) {
	job := msg.job
	ctx := job.ctx()
	logger := lg.FromContext(ctx).With(lg.String("job", job.Name), lg.Int("worker", w.id))

	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)
	msg.done.start()

	var err error
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", lg.Any("panic", r))
			err = fmt.Errorf("workerpool: job %q panicked: %v", job.Name, r)
		}
		if job.Meta != nil && job.Meta.CleanupFunc != nil {
			job.Meta.CleanupFunc()
		}
		p.opts.Metrics.IncExecuted()
		if err != nil {
			p.opts.Metrics.IncFailed()
			p.reportJobError(err)
		}
		msg.done.resolve(err)
	}()

	logger.Info("Worker processing job", lg.Int32("active_workers", p.activeWorkers.Load()))
	if err = job.Fn(ctx); err != nil {
		logger.Warn("Worker job failed", lg.Any("error", err))
		return
	}
	logger.Info("Worker finished", lg.Int32("active_workers", p.activeWorkers.Load()))
}
