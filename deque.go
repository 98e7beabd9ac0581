package workerpool

const (
	initialDequeCapacity = 32
)

// deque is a growable ring buffer supporting insertion at both ends and
// removal from the front.
//
// It is not safe for concurrent use; Channel guards it with its mutex.
type deque[T any] struct {
	buf        []T // circular buffer
	head, tail int // head is the first item, tail the next free slot
	size       int
}

func newDeque[T any](capacity int) *deque[T] {
	if capacity <= 0 {
		capacity = initialDequeCapacity
	}
	return &deque[T]{buf: make([]T, capacity)}
}

// Len returns the number of buffered items.
func (q *deque[T]) Len() int { return q.size }

// PushBack appends v after the last item.
func (q *deque[T]) PushBack(v T) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[q.tail] = v
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
}

// PushFront inserts v before the first item.
func (q *deque[T]) PushFront(v T) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = v
	q.size++
}

// PopFront removes and returns the first item.
//
// If the deque is empty, it returns the zero value and false.
func (q *deque[T]) PopFront() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero // release references held by the slot
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// grow doubles the buffer and unwraps the items so head starts at 0.
func (q *deque[T]) grow() {
	buf := make([]T, len(q.buf)*2)
	n := copy(buf, q.buf[q.head:])
	copy(buf[n:], q.buf[:q.head])
	q.head = 0
	q.tail = q.size
	q.buf = buf
}
