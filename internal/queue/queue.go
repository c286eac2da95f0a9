package queue

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO safe for concurrent producers and consumers.
//
// Push blocks while the queue is full and Pop blocks while it is empty and
// still open. Close is the completion signal: once closed, pushes fail and
// pops drain whatever is left before reporting ErrClosed. The emptiness check
// that ends a consumer runs under the same lock as the pop itself, so an
// entry pushed before Close is never missed.
type Queue[T any] struct {
	mu        sync.Mutex
	notFull   *sync.Cond
	notEmpty  *sync.Cond
	ring      *Ring[T]
	closed    bool
	highWater int
}

// New returns an open Queue holding at most capacity entries.
func New[T any](capacity int) *Queue[T] {
	q := &Queue[T]{ring: NewRing[T](capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends v, waiting for room while the queue is full. It returns
// ErrClosed if the queue is or becomes closed, and ctx.Err() if ctx ends
// while waiting.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	stop := context.AfterFunc(ctx, q.wakeAll)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.ring.IsFull() {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.notFull.Wait()
	}
	return q.pushLocked(v)
}

// TryPush appends v without waiting. It returns ErrFull when there is no room.
func (q *Queue[T]) TryPush(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushLocked(v)
}

// Pop removes the oldest entry, waiting while the queue is empty and open.
// After Close it keeps returning queued entries and reports ErrClosed once
// none remain.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, q.wakeAll)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	for q.ring.IsEmpty() {
		if q.closed {
			return zero, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

// TryPop removes the oldest entry without waiting. It returns ErrEmpty when
// the queue is empty but open and ErrClosed when it is closed and drained.
func (q *Queue[T]) TryPop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ring.IsEmpty() && q.closed {
		var zero T
		return zero, ErrClosed
	}
	return q.popLocked()
}

// Close marks the queue closed and wakes every waiter. It is safe to call
// more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Len returns the number of queued entries.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Len()
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return q.ring.Cap() }

// HighWater returns the largest number of entries the queue has held at once.
func (q *Queue[T]) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highWater
}

// pushLocked requires q.mu.
func (q *Queue[T]) pushLocked(v T) error {
	if q.closed {
		return ErrClosed
	}
	if err := q.ring.Push(v); err != nil {
		return err
	}
	if n := q.ring.Len(); n > q.highWater {
		q.highWater = n
	}
	q.notEmpty.Broadcast()
	return nil
}

// popLocked requires q.mu.
func (q *Queue[T]) popLocked() (T, error) {
	v, err := q.ring.Pop()
	if err != nil {
		return v, err
	}
	q.notFull.Broadcast()
	return v, nil
}

// wakeAll lets waiters re-check their context after it ends.
func (q *Queue[T]) wakeAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}
