// Package api
// Author: momentics
//
// Executor contract for parallel task dispatch. Any executor that can accept
// a job and report whether it is still accepting jobs is substitutable as a
// Fiber's execution engine.

package api

// TaskFunc is a unit of work submitted to an Executor.
type TaskFunc func()

// Executor abstracts parallel task execution on a bounded worker pool.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task TaskFunc) error

	// IsAcceptingJobs reports whether Submit may still succeed.
	IsAcceptingJobs() bool

	// NumWorkers returns current number of active worker routines.
	NumWorkers() int
}
