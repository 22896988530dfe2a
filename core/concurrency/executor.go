// File: core/concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PoolExecutor dispatches tasks across worker goroutines, using lock-free
// per-worker queues and a global queue fallback. The execution policy
// (fault-isolating or direct) is injected at construction.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/dispatch/api"
)

var _ api.Executor = (*PoolExecutor)(nil)

// PoolExecutor manages a pool of worker goroutines. It implements
// api.Executor.
type PoolExecutor struct {
	globalQueue chan TaskFunc
	localQueues []*LockFreeQueue[TaskFunc]
	workers     []*worker
	policy      ExecutionPolicy
	closeCh     chan struct{}
	closed      atomic.Bool
	wg          sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	inflight  atomic.Int64
}

// NewPoolExecutor creates a PoolExecutor with the given number of workers and
// execution policy. If numWorkers <= 0, defaults to runtime.NumCPU(). A nil
// policy defaults to FaultIsolating.
func NewPoolExecutor(numWorkers int, policy ExecutionPolicy) *PoolExecutor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if policy == nil {
		policy = FaultIsolating{}
	}
	e := &PoolExecutor{
		globalQueue: make(chan TaskFunc, numWorkers*4),
		localQueues: make([]*LockFreeQueue[TaskFunc], numWorkers),
		workers:     make([]*worker, numWorkers),
		policy:      policy,
		closeCh:     make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		e.localQueues[i] = NewLockFreeQueue[TaskFunc](1024)
	}
	for i := 0; i < numWorkers; i++ {
		w := &worker{
			id:         i,
			executor:   e,
			localQueue: e.localQueues[i],
			stopCh:     make(chan struct{}),
		}
		e.workers[i] = w
		e.wg.Add(1)
		go w.run(&e.wg)
	}
	return e
}

// Submit enqueues a task. Returns ErrExecutorClosed once the executor has
// been closed and ErrExecutorSaturated when every queue is full.
func (e *PoolExecutor) Submit(task TaskFunc) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	n := e.submitted.Add(1)
	e.inflight.Add(1)
	idx := int(n % int64(len(e.localQueues)))
	if e.localQueues[idx].Enqueue(task) {
		return nil
	}
	select {
	case e.globalQueue <- task:
		return nil
	case <-e.closeCh:
		e.inflight.Add(-1)
		return ErrExecutorClosed
	default:
		e.inflight.Add(-1)
		return ErrExecutorSaturated
	}
}

// IsAcceptingJobs reports whether Submit may still succeed.
func (e *PoolExecutor) IsAcceptingJobs() bool {
	return !e.closed.Load()
}

// NumWorkers returns the number of worker goroutines.
func (e *PoolExecutor) NumWorkers() int {
	return len(e.workers)
}

// Quiesce blocks until every accepted task has completed or the deadline
// passes, reporting whether the executor fully drained.
func (e *PoolExecutor) Quiesce(deadline time.Time) bool {
	for e.inflight.Load() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// Close shuts down the executor and waits for workers to exit. Tasks still
// queued at this point are abandoned. Idempotent.
func (e *PoolExecutor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.closeCh)
		for _, w := range e.workers {
			close(w.stopCh)
		}
		e.wg.Wait()
	}
}

// Stats returns basic executor metrics.
func (e *PoolExecutor) Stats() map[string]int64 {
	return map[string]int64{
		"submitted_tasks": e.submitted.Load(),
		"completed_tasks": e.completed.Load(),
		"pending_tasks":   e.inflight.Load(),
		"num_workers":     int64(len(e.workers)),
	}
}

// worker represents a single executor goroutine.
type worker struct {
	id         int
	executor   *PoolExecutor
	localQueue *LockFreeQueue[TaskFunc]
	stopCh     chan struct{}
}

// run is the main worker loop: local queue first, global queue fallback,
// short backoff when idle.
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		default:
			if task, ok := w.localQueue.Dequeue(); ok {
				w.executeTask(task)
				continue
			}
			select {
			case task := <-w.executor.globalQueue:
				w.executeTask(task)
			case <-w.stopCh:
				return
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}
}

// executeTask runs the task through the pool's policy and updates counters.
func (w *worker) executeTask(task TaskFunc) {
	defer func() {
		w.executor.completed.Add(1)
		w.executor.inflight.Add(-1)
	}()
	w.executor.policy.Execute(task)
}
