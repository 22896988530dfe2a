// File: core/concurrency/policy.go
// Package concurrency defines execution policy strategies for the pool executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The policy is selected at construction time as a strategy object, not via
// inheritance: any policy that can run one task is substitutable.

package concurrency

import "github.com/momentics/dispatch/api"

// TaskFunc is a unit of work to execute. Aliased from the api contract so a
// *PoolExecutor satisfies api.Executor directly.
type TaskFunc = api.TaskFunc

// ExecutionPolicy runs one submitted task on a worker goroutine.
type ExecutionPolicy interface {
	Execute(task TaskFunc)
}

// FaultIsolating recovers panics inside a task so one failing unit of work
// never stops the worker or the pool. This is the default policy.
type FaultIsolating struct {
	// OnFault, when set, observes the recovered value of a faulted task.
	// It runs on the worker goroutine and must not panic.
	OnFault func(recovered any)
}

// Execute runs task, containing any panic it raises.
func (p FaultIsolating) Execute(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil && p.OnFault != nil {
			p.OnFault(r)
		}
	}()
	task()
}

// Direct runs tasks without fault containment; a panicking task takes its
// worker down. Intended for callers that install their own recovery.
type Direct struct{}

// Execute runs task as-is.
func (Direct) Execute(task TaskFunc) {
	task()
}
