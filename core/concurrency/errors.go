// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrExecutorClosed indicates the executor has been shut down
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrExecutorSaturated indicates all task queues are full
	ErrExecutorSaturated = errors.New("executor queues are full")

	// ErrFiberStopped indicates the fiber no longer accepts submissions
	ErrFiberStopped = errors.New("fiber is stopped")
)
