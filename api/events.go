// File: api/events.go
// Package api defines the callback shapes of the per-connection event loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Each event type has exactly one optional callback slot on a connection.
// Registering a callback replaces any previous one; this is a deliberate
// single-subscriber design, not a multicast event list.
//
// Callback bodies run on whatever goroutine delivers the event, usually the
// reactor's I/O path. Heavy work must be handed to a Fiber explicitly.

// ReceiveFunc consumes one unit of inbound data.
type ReceiveFunc func(data NetworkData)

// ConnectFunc observes connection establishment. conn is the Connection
// raising the event.
type ConnectFunc func(remote net.Addr, conn any)

// DisconnectFunc observes connection teardown with a standardized reason.
type DisconnectFunc func(conn any, reason *Error)

// ErrorFunc observes transport- and scheduler-origin failures, bound to the
// connection that raised them.
type ErrorFunc func(conn any, err *Error)
