// File: core/queue/boundedqueue.go
// Package queue provides the fixed-capacity FIFO holding data that arrived
// before a consumer was ready for it.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The producer is the I/O path and must never block; when the queue is full
// the configured overflow policy decides between evicting the oldest item and
// rejecting the newest one.

package queue

import (
	"sync"

	eapache "github.com/eapache/queue"
)

// OverflowPolicy selects the behavior of Enqueue on a full queue.
type OverflowPolicy int

const (
	// DropOldest evicts the head to admit the new item. The newest data keeps
	// flowing at the cost of the oldest buffered item.
	DropOldest OverflowPolicy = iota

	// RejectNewest refuses the enqueue and leaves the buffered items intact.
	RejectNewest
)

// String returns the symbolic name of the policy.
func (p OverflowPolicy) String() string {
	if p == RejectNewest {
		return "reject_newest"
	}
	return "drop_oldest"
}

// BoundedQueue is a thread-safe FIFO with fixed capacity. DrainAll removes
// every buffered item atomically with respect to concurrent enqueues, so no
// item can be both drained and delivered through a later enqueue.
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	items    *eapache.Queue
	capacity int
	policy   OverflowPolicy
	dropped  int64
}

// New creates a BoundedQueue with the given capacity and overflow policy.
// Capacity below 1 is clamped to 1.
func New[T any](capacity int, policy OverflowPolicy) *BoundedQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedQueue[T]{
		items:    eapache.New(),
		capacity: capacity,
		policy:   policy,
	}
}

// Enqueue adds item at the tail and reports whether it was admitted.
// Under DropOldest the item is always admitted, evicting the head when full.
func (q *BoundedQueue[T]) Enqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Length() >= q.capacity {
		if q.policy == RejectNewest {
			q.dropped++
			return false
		}
		q.items.Remove()
		q.dropped++
	}
	q.items.Add(item)
	return true
}

// DrainAll removes and returns all buffered items in arrival order. Returns
// nil when empty.
func (q *BoundedQueue[T]) DrainAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.items.Length()
	if n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, q.items.Remove().(T))
	}
	return out
}

// Len returns the current number of buffered items.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Cap returns the fixed capacity.
func (q *BoundedQueue[T]) Cap() int {
	return q.capacity
}

// Policy returns the configured overflow policy.
func (q *BoundedQueue[T]) Policy() OverflowPolicy {
	return q.policy
}

// Dropped returns the number of items lost to the overflow policy.
func (q *BoundedQueue[T]) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
