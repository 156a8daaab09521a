// File: internal/concurrency/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TaskRing is the fixed-capacity circular buffer behind the queue engines.
// It is not synchronized: the owning pool guards it with its own lock and
// checks capacity before Push/Pop. Violations are programmer errors and panic.

package concurrency

import (
	"fmt"

	"github.com/momentics/hioload-pool/api"
)

// TaskRing is a bounded FIFO with head/tail cursors and an occupancy count.
type TaskRing[T any] struct {
	slots []T
	head  int // next pop
	tail  int // next push
	size  int
}

// NewTaskRing allocates a ring holding up to capacity items.
func NewTaskRing[T any](capacity int) *TaskRing[T] {
	if capacity < 1 {
		panic(fmt.Errorf("%w: ring capacity %d", api.ErrCapacityViolation, capacity))
	}
	return &TaskRing[T]{slots: make([]T, capacity)}
}

// Push appends item. Pushing onto a full ring panics.
func (r *TaskRing[T]) Push(item T) {
	if r.size == len(r.slots) {
		panic(fmt.Errorf("%w: push on full ring (cap %d)", api.ErrCapacityViolation, len(r.slots)))
	}
	r.slots[r.tail] = item
	if r.tail++; r.tail == len(r.slots) {
		r.tail = 0
	}
	r.size++
}

// Pop removes and returns the oldest item, clearing its slot so the ring
// does not keep the task reachable. Popping an empty ring panics.
func (r *TaskRing[T]) Pop() T {
	if r.size == 0 {
		panic(fmt.Errorf("%w: pop on empty ring", api.ErrCapacityViolation))
	}
	var zero T
	item := r.slots[r.head]
	r.slots[r.head] = zero
	if r.head++; r.head == len(r.slots) {
		r.head = 0
	}
	r.size--
	return item
}

// Peek returns the oldest item without removing it.
func (r *TaskRing[T]) Peek() (T, bool) {
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.slots[r.head], true
}

// Len returns the occupancy.
func (r *TaskRing[T]) Len() int { return r.size }

// Cap returns the capacity.
func (r *TaskRing[T]) Cap() int { return len(r.slots) }

// Empty reports whether the ring holds no items.
func (r *TaskRing[T]) Empty() bool { return r.size == 0 }

// Full reports whether the ring is at capacity.
func (r *TaskRing[T]) Full() bool { return r.size == len(r.slots) }

// Reserve grows the capacity to at least n. Only an empty ring may be resized.
func (r *TaskRing[T]) Reserve(n int) {
	if r.size != 0 {
		panic(fmt.Errorf("%w: reserve on non-empty ring (len %d)", api.ErrCapacityViolation, r.size))
	}
	if n > len(r.slots) {
		r.slots = make([]T, n)
	}
	r.head, r.tail = 0, 0
}

// Clear drops every queued item without returning it and reports how many
// were dropped.
func (r *TaskRing[T]) Clear() int {
	n := r.size
	var zero T
	for r.size > 0 {
		r.slots[r.head] = zero
		if r.head++; r.head == len(r.slots) {
			r.head = 0
		}
		r.size--
	}
	r.head, r.tail = 0, 0
	return n
}
