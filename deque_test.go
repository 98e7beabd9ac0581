package workerpool

import (
	"testing"
)

func TestDequeGrow_NoWrap(t *testing.T) {
	capacity := 4
	q := newDeque[int](capacity)

	for i := 1; i <= capacity+1; i++ {
		q.PushBack(i)
	}

	if len(q.buf) <= capacity {
		t.Fatalf("grow() didn't increase capacity, got %d", len(q.buf))
	}
	if q.Len() != capacity+1 {
		t.Fatalf("after grow: expected size=%d, got %d", capacity+1, q.Len())
	}

	for expected := 1; expected <= capacity+1; expected++ {
		v, ok := q.PopFront()
		if !ok {
			t.Fatalf("PopFront returned false, expected %d", expected)
		}
		if v != expected {
			t.Fatalf("FIFO order broken: expected %d, got %d", expected, v)
		}
	}
}

func TestDequeGrow_WithWrap(t *testing.T) {
	q := newDeque[int](4)

	q.PushBack(2)
	q.PushBack(3)
	q.PushFront(1) // head wraps to the end of the buffer
	q.PushBack(4)
	q.PushFront(0) // full: grows and unwraps

	if q.Len() != 5 {
		t.Fatalf("size = %d; want 5", q.Len())
	}
	for expected := 0; expected < 5; expected++ {
		v, ok := q.PopFront()
		if !ok || v != expected {
			t.Fatalf("PopFront = %d, %v; want %d", v, ok, expected)
		}
	}
	if _, ok := q.PopFront(); ok {
		t.Fatal("PopFront on empty deque returned true")
	}
}

func TestDequePushFrontIsLIFO(t *testing.T) {
	q := newDeque[string](2)
	q.PushBack("normal")
	q.PushFront("u1")
	q.PushFront("u2")
	q.PushFront("u3")

	for _, want := range []string{"u3", "u2", "u1", "normal"} {
		got, _ := q.PopFront()
		if got != want {
			t.Fatalf("PopFront = %q; want %q", got, want)
		}
	}
}

func TestDequePopClearsSlot(t *testing.T) {
	q := newDeque[*int](2)
	v := 1
	q.PushBack(&v)
	q.PopFront()
	for i, p := range q.buf {
		if p != nil {
			t.Fatalf("slot %d still holds a reference", i)
		}
	}
}
