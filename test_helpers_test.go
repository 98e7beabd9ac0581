package workerpool_test

import (
	"runtime"
	"testing"
	"time"

	wp "github.com/azargarov/bankpool"
)

func newTestPool(t *testing.T, workers int) *wp.Pool {
	t.Helper()

	p, err := wp.NewPool(wp.Options{Workers: workers})
	if err != nil {
		t.Fatalf("NewPool(%d): %v", workers, err)
	}
	return p
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatal("condition not satisfied before timeout")
}

// recvAsync runs Recv in a goroutine and delivers its result.
func recvAsync[T any](r *wp.Receiver[T]) <-chan recvResult[T] {
	out := make(chan recvResult[T], 1)
	go func() {
		v, err := r.Recv()
		out <- recvResult[T]{v: v, err: err}
	}()
	return out
}

type recvResult[T any] struct {
	v   T
	err error
}
