// Package queue provides an unbounded FIFO hand-off queue used to pass
// accepted connections from the acceptor to the worker pool.
//
// The queue is the only state shared between the acceptor and the workers.
// All insertions and removals happen under one queue-wide mutex, so an item
// enqueued once is dequeued by exactly one caller. Blocking consumers wait
// on a condition variable; Dequeue re-checks the queue after every wakeup,
// which makes it safe against spurious wakeups and against several waiters
// being woken for a single item.
package queue

import "sync"

// Queue is an unbounded FIFO queue safe for concurrent use.
//
// Items are returned in insertion order. After Close, Enqueue fails but
// Dequeue keeps draining items already queued; once the queue is both
// closed and empty, Dequeue returns ok=false.
type Queue[T any] struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    []T
	closed   bool
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends item to the tail of the queue and wakes one waiting
// consumer. Returns false if the queue has been closed.
func (q *Queue[T]) Enqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, item)
	q.nonEmpty.Signal()
	return true
}

// Dequeue removes and returns the item at the head of the queue, blocking
// while the queue is empty. Returns ok=false only when the queue is closed
// and fully drained.
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	return q.pop(), true
}

// TryDequeue removes and returns the head item without blocking.
// Returns ok=false when the queue is currently empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	return q.pop(), true
}

// pop removes the head item. Caller must hold q.mu and have checked that
// the queue is non-empty.
func (q *Queue[T]) pop() T {
	item := q.items[0]
	var zero T
	q.items[0] = zero // release the reference for the GC
	q.items = q.items[1:]
	return item
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed and wakes all waiting consumers. Items
// already queued remain dequeueable. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.nonEmpty.Broadcast()
}
