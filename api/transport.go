// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the transport-handle abstraction a Connection projects. The handle
// owns raw socket semantics; the Connection never re-implements them, it only
// reads them through these accessors.

package api

import "time"

// Transport is the raw socket primitive underlying a Connection. A Connection
// holds exactly one Transport for its lifetime and releases it exactly once
// through Release.
type Transport interface {
	// IsConnected reports whether the handle is still usable.
	IsConnected() bool

	// Available returns the number of bytes readable without blocking.
	Available() int

	// Kind reports stream vs datagram orientation of the socket.
	Kind() TransportKind

	// Blocking reports whether I/O on the handle blocks.
	Blocking() bool

	// SetBlocking switches blocking mode; ErrNotSupported when the
	// underlying handle cannot change mode.
	SetBlocking(blocking bool) error

	// Timeout returns the currently configured I/O timeout (0 = none).
	Timeout() time.Duration

	// SetTimeout configures the I/O timeout applied to subsequent operations.
	SetTimeout(d time.Duration) error

	// Release closes the handle and frees its resources. Safe to call once;
	// further calls return ErrTransportReleased.
	Release() error
}
