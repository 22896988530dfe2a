// File: core/concurrency/lock_free_queue_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency_test

import (
	"sync"
	"testing"

	"github.com/momentics/dispatch/core/concurrency"
)

func TestLockFreeQueueFIFO(t *testing.T) {
	q := concurrency.NewLockFreeQueue[int](8)
	for i := 0; i < 8; i++ {
		if !q.Enqueue(i) {
			t.Fatalf("Enqueue(%d) failed below capacity", i)
		}
	}
	if q.Enqueue(99) {
		t.Error("Enqueue succeeded on a full queue")
	}
	for i := 0; i < 8; i++ {
		v, ok := q.Dequeue()
		if !ok || v != i {
			t.Fatalf("Dequeue() = %d,%v, want %d,true", v, ok, i)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue succeeded on an empty queue")
	}
}

func TestLockFreeQueueWraparound(t *testing.T) {
	q := concurrency.NewLockFreeQueue[int](4)
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			if !q.Enqueue(round*10 + i) {
				t.Fatalf("round %d: Enqueue(%d) failed", round, i)
			}
		}
		for i := 0; i < 3; i++ {
			v, ok := q.Dequeue()
			if !ok || v != round*10+i {
				t.Fatalf("round %d: Dequeue() = %d,%v", round, v, ok)
			}
		}
	}
}

func TestLockFreeQueueConcurrent(t *testing.T) {
	const producers = 4
	const perProducer = 1000
	q := concurrency.NewLockFreeQueue[int](producers * perProducer)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !q.Enqueue(base + i) {
				}
			}
		}(p * perProducer)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		if seen[v] {
			t.Fatalf("item %d dequeued twice", v)
		}
		seen[v] = true
	}
	if len(seen) != producers*perProducer {
		t.Fatalf("dequeued %d distinct items, want %d", len(seen), producers*perProducer)
	}
}
