// File: core/concurrency/fiber.go
// Package concurrency implements the Fiber, a bounded concurrent task
// scheduler with fault isolation and time-bounded shutdown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Fiber pairs an executor policy object with a worker pool. Submission is
// best-effort: work is accepted only while the executor reports itself
// accepting jobs, otherwise it is silently dropped. Callers needing delivery
// guarantees must put their own durable queue in front of the Fiber.

package concurrency

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/dispatch/api"
)

// FiberState is the lifecycle state of a Fiber.
type FiberState int32

const (
	FiberRunning FiberState = iota
	FiberShuttingDown
	FiberStopped
)

// String returns the symbolic name of the state.
func (s FiberState) String() string {
	switch s {
	case FiberRunning:
		return "running"
	case FiberShuttingDown:
		return "shutting_down"
	default:
		return "stopped"
	}
}

// quiescer is the optional drain capability of an executor.
type quiescer interface {
	Quiesce(deadline time.Time) bool
}

// closer is the optional reclamation capability of an executor.
type closer interface {
	Close()
}

// Fiber schedules submitted work on its executor's pooled workers. There is
// no ordering guarantee between independently submitted items.
type Fiber struct {
	exec     api.Executor
	state    atomic.Int32
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewFiber wraps an externally supplied executor.
func NewFiber(exec api.Executor) *Fiber {
	return &Fiber{exec: exec, stopped: make(chan struct{})}
}

// NewFiberWithWorkers creates a Fiber backed by a fault-isolating pool
// executor of the given width.
func NewFiberWithWorkers(numWorkers int) *Fiber {
	return NewFiber(NewPoolExecutor(numWorkers, FaultIsolating{}))
}

// Executor exposes the underlying executor policy object.
func (f *Fiber) Executor() api.Executor {
	return f.exec
}

// State returns the current lifecycle state.
func (f *Fiber) State() FiberState {
	return FiberState(f.state.Load())
}

// Submit schedules task for execution and reports whether it was accepted.
// Once the Fiber is stopped, or the executor stops accepting jobs, work is
// dropped. During shutdown, work submitted before the grace deadline is still
// accepted while the executor reports itself accepting.
func (f *Fiber) Submit(task func()) bool {
	if f.State() == FiberStopped {
		return false
	}
	if !f.exec.IsAcceptingJobs() {
		return false
	}
	return f.exec.Submit(task) == nil
}

// Shutdown transitions the Fiber to shutting-down, lets accepted work drain
// for up to grace, then forcibly reclaims the pool. When the transition has
// already been claimed by a concurrent Shutdown or Stop, the call blocks
// until the Fiber is stopped, so every caller returns to a terminal state.
func (f *Fiber) Shutdown(grace time.Duration) {
	if !f.state.CompareAndSwap(int32(FiberRunning), int32(FiberShuttingDown)) {
		<-f.stopped
		return
	}
	if q, ok := f.exec.(quiescer); ok {
		q.Quiesce(time.Now().Add(grace))
	}
	f.reclaim()
}

// Stop is the immediate shutdown variant: no grace period, the pool is
// reclaimed at once. Safe to call concurrently and repeatedly; it returns
// once the Fiber is stopped.
func (f *Fiber) Stop() {
	f.state.CompareAndSwap(int32(FiberRunning), int32(FiberShuttingDown))
	f.reclaim()
	<-f.stopped
}

// Dispose forces an unconditional shutdown. Pool resources are released
// exactly once; further calls are no-ops that still wait for the stop to
// complete.
func (f *Fiber) Dispose() {
	f.Stop()
}

// reclaim closes the pool and publishes the terminal state exactly once.
func (f *Fiber) reclaim() {
	f.stopOnce.Do(func() {
		if c, ok := f.exec.(closer); ok {
			c.Close()
		}
		f.state.Store(int32(FiberStopped))
		close(f.stopped)
	})
}
