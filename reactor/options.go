// File: reactor/options.go
// Package reactor defines functional options for the TCP reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"time"

	"github.com/momentics/dispatch/control"
	"github.com/momentics/dispatch/core/concurrency"
	"github.com/momentics/dispatch/core/queue"
)

// Option customizes reactor initialization.
type Option func(*TCP)

// WithFiber supplies an externally owned fiber. The reactor will not shut it
// down; lifecycle stays with the caller.
func WithFiber(f *concurrency.Fiber) Option {
	return func(r *TCP) {
		r.fiber = f
		r.ownFiber = false
	}
}

// WithReadBufferSize overrides the pump's read buffer size.
func WithReadBufferSize(n int) Option {
	return func(r *TCP) {
		if n > 0 {
			r.readBufSize = n
		}
	}
}

// WithUnreadCapacity bounds each connection's buffer of data arriving before
// a receive callback is registered.
func WithUnreadCapacity(n int) Option {
	return func(r *TCP) {
		r.unreadCap = n
	}
}

// WithOverflowPolicy selects the eviction rule applied when that buffer is
// full.
func WithOverflowPolicy(p queue.OverflowPolicy) Option {
	return func(r *TCP) {
		r.policy = p
	}
}

// WithArmOnAccept starts each connection's pump immediately on accept, so
// bytes arriving before the application registers a receive callback are
// buffered rather than left in the kernel.
func WithArmOnAccept() Option {
	return func(r *TCP) {
		r.armOnAccept = true
	}
}

// WithConfig seeds tunables from a configuration store. Values absent from
// the store keep the reactor defaults. Explicit options applied after this
// one still win.
func WithConfig(cs *control.ConfigStore) Option {
	return func(r *TCP) {
		r.readBufSize = cs.ReadBufferSize(r.readBufSize)
		r.unreadCap = cs.UnreadCapacity(r.unreadCap)
		r.policy = cs.OverflowPolicy(r.policy)
	}
}

// WithShutdownGrace bounds how long Shutdown lets the owned fiber drain.
func WithShutdownGrace(d time.Duration) Option {
	return func(r *TCP) {
		r.shutdownGrace = d
	}
}
