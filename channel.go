package workerpool

import (
	"iter"
	"sync"
	"sync/atomic"
)

// shared is the state behind every Sender and Receiver of one channel.
//
// queue is only touched with mu held. The sender and receiver counts are
// atomics and are updated without mu.
type shared[T any] struct {
	mu        sync.Mutex
	available *sync.Cond
	queue     *deque[T]

	senders   atomic.Int64
	receivers atomic.Int64
}

// Sender is the producing half of a priority channel.
//
// A Sender is safe for concurrent use. Use Clone to hand an independent
// handle to another producer and Close when a handle is no longer needed:
// receivers only observe ErrNoSender once every handle has been closed.
type Sender[T any] struct {
	shared *shared[T]
	closed atomic.Bool
}

// Receiver is the consuming half of a priority channel.
type Receiver[T any] struct {
	shared *shared[T]
	closed atomic.Bool
}

// NewChannel creates an unbounded two-tier priority channel with one live
// sender and one live receiver.
func NewChannel[T any]() (*Sender[T], *Receiver[T]) {
	s := &shared[T]{queue: newDeque[T](initialDequeCapacity)}
	s.available = sync.NewCond(&s.mu)
	s.senders.Store(1)
	s.receivers.Store(1)
	return &Sender[T]{shared: s}, &Receiver[T]{shared: s}
}

// Send queues item.
//
// Normal items go to the back of the queue, urgent items to the front.
// Urgent items therefore always leave before normal ones, and several
// urgent items queued without a receive in between leave in reverse
// order.
//
// Send fails with ErrNoReceiver when no receiver is alive; the item is
// dropped in that case.
func (s *Sender[T]) Send(item T, urgent bool) error {
	if s.closed.Load() {
		return ErrSenderClosed
	}
	if s.shared.receivers.Load() == 0 {
		return ErrNoReceiver
	}

	s.shared.mu.Lock()
	// Re-checked under the lock so nothing lands after the last Close.
	if s.closed.Load() {
		s.shared.mu.Unlock()
		return ErrSenderClosed
	}
	wasEmpty := s.shared.queue.Len() == 0
	if urgent {
		s.shared.queue.PushFront(item)
	} else {
		s.shared.queue.PushBack(item)
	}
	s.shared.mu.Unlock()

	if wasEmpty {
		s.shared.available.Signal()
	}
	return nil
}

// Len returns the number of queued items.
func (s *Sender[T]) Len() int {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	return s.shared.queue.Len()
}

// Receivers returns the number of live receivers.
func (s *Sender[T]) Receivers() int { return int(s.shared.receivers.Load()) }

// Clone returns a new live Sender for the same channel.
func (s *Sender[T]) Clone() *Sender[T] {
	s.shared.senders.Add(1)
	return &Sender[T]{shared: s.shared}
}

// Close releases the handle. Closing the last live sender wakes every
// blocked receiver so it can return ErrNoSender. Close is idempotent.
func (s *Sender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.shared.senders.Add(-1) > 0 {
		return
	}
	// Taking the lock orders the broadcast after any receiver that has
	// already seen a live sender and is about to wait.
	s.shared.mu.Lock()
	s.shared.available.Broadcast()
	s.shared.mu.Unlock()
}

// Recv removes and returns the item at the front of the queue, blocking
// while the queue is empty and senders remain.
//
// It returns ErrNoSender once the queue is empty and every sender is
// closed. That condition is permanent.
func (r *Receiver[T]) Recv() (T, error) {
	var zero T
	if r.closed.Load() {
		return zero, ErrReceiverClosed
	}

	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	for {
		if v, ok := r.shared.queue.PopFront(); ok {
			if r.shared.queue.Len() > 0 {
				r.shared.available.Signal()
			}
			return v, nil
		}
		if r.shared.senders.Load() == 0 {
			return zero, ErrNoSender
		}
		r.shared.available.Wait()
	}
}

// All returns an iterator over received items. It stops at the first
// Recv error.
func (r *Receiver[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := r.Recv()
			if err != nil || !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of queued items.
func (r *Receiver[T]) Len() int {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	return r.shared.queue.Len()
}

// Senders returns the number of live senders.
func (r *Receiver[T]) Senders() int { return int(r.shared.senders.Load()) }

// Clone returns a new live Receiver for the same channel.
func (r *Receiver[T]) Clone() *Receiver[T] {
	r.shared.receivers.Add(1)
	return &Receiver[T]{shared: r.shared}
}

// Close releases the handle. Once every receiver is closed, Send fails
// with ErrNoReceiver. Close is idempotent.
func (r *Receiver[T]) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.shared.receivers.Add(-1)
	}
}
