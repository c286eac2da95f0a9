// Package queue provides the bounded FIFO shared by the requester and
// resolver pools.
//
// Ring is the bare data structure and does no locking of its own. Queue
// layers the locking contract on top of a Ring: every compound operation
// (check-then-push, check-then-pop) runs under one mutex, and callers wait on
// condition variables instead of polling.
package queue

import "errors"

var (
	// ErrFull is returned by a non-blocking push when the queue is at capacity.
	ErrFull = errors.New("queue is full")
	// ErrEmpty is returned by a non-blocking pop when the queue holds no entries.
	ErrEmpty = errors.New("queue is empty")
	// ErrClosed is returned once the queue is closed: by pushes always, and by
	// pops after the remaining entries have been drained.
	ErrClosed = errors.New("queue is closed")
)

// Ring is a fixed-capacity FIFO backed by a circular slice.
//
// Ring is not safe for concurrent use.
type Ring[T any] struct {
	buf  []T
	head int // index of the oldest entry
	size int
}

// NewRing returns an empty Ring holding at most capacity entries.
// A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v at the tail. It returns ErrFull without modifying the ring
// when the ring is at capacity.
func (r *Ring[T]) Push(v T) error {
	if r.IsFull() {
		return ErrFull
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	return nil
}

// Pop removes and returns the oldest entry, or ErrEmpty.
func (r *Ring[T]) Pop() (T, error) {
	var zero T
	if r.IsEmpty() {
		return zero, ErrEmpty
	}
	v := r.buf[r.head]
	// release the slot so the ring no longer references the entry
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return v, nil
}

// IsFull reports whether the ring is at capacity.
func (r *Ring[T]) IsFull() bool { return r.size == len(r.buf) }

// IsEmpty reports whether the ring holds no entries.
func (r *Ring[T]) IsEmpty() bool { return r.size == 0 }

// Len returns the number of queued entries.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }
