// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Boundary contract of the owning reactor: the external component that owns
// listening/connecting sockets and constructs Connections. The dispatch core
// consumes this interface; it never owns the sockets itself.

package api

import "net"

// Reactor is supplied to every Connection at construction time. Connections
// use it to detach themselves, to push outbound payloads, and to arm or
// disarm inbound delivery at the transport level.
//
// The conn arguments are typed any to keep this boundary free of a dependency
// on the connection package; implementations receive back the same value they
// constructed the Connection around.
type Reactor interface {
	// CloseConnection detaches conn from the reactor and closes its socket.
	CloseConnection(conn any) error

	// Send writes payload to the given remote endpoint, blocking until the
	// underlying send call returns.
	Send(payload []byte, remote net.Addr) error

	// ArmReceive starts transport-level delivery of inbound data to conn.
	ArmReceive(conn any) error

	// DisarmReceive stops transport-level delivery to conn. After it returns
	// no further data reaches the connection until it is re-armed.
	DisarmReceive(conn any) error

	// IsActive reports whether the reactor is in a receiving-capable state.
	IsActive() bool
}
