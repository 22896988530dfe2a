// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NetConn adapts a net.Conn to the api.Transport handle contract. It owns
// the socket for the life of its Connection and is released exactly once.

package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/dispatch/api"
)

// NetConn is the net.Conn-backed transport handle.
type NetConn struct {
	conn net.Conn
	kind api.TransportKind

	mu       sync.Mutex
	timeout  time.Duration
	released atomic.Bool
}

// NewNetConn wraps conn. The transport kind is derived from the socket's
// protocol and never changes afterwards.
func NewNetConn(conn net.Conn) *NetConn {
	kind := api.KindStream
	if _, ok := conn.(net.PacketConn); ok {
		kind = api.KindDatagram
	}
	return &NetConn{conn: conn, kind: kind}
}

// Conn exposes the wrapped net.Conn to the owning reactor's I/O path.
func (n *NetConn) Conn() net.Conn {
	return n.conn
}

// IsConnected implements api.Transport.
func (n *NetConn) IsConnected() bool {
	return !n.released.Load()
}

// Available implements api.Transport: bytes readable without blocking.
// Platform support lives in sockinfo_linux.go; elsewhere it reports 0.
func (n *NetConn) Available() int {
	if n.released.Load() {
		return 0
	}
	return readableBytes(n.conn)
}

// Kind implements api.Transport.
func (n *NetConn) Kind() api.TransportKind {
	return n.kind
}

// Blocking implements api.Transport. net.Conn I/O always blocks.
func (n *NetConn) Blocking() bool {
	return true
}

// SetBlocking implements api.Transport; net.Conn cannot switch to
// non-blocking mode.
func (n *NetConn) SetBlocking(blocking bool) error {
	if !blocking {
		return api.ErrNotSupported
	}
	return nil
}

// Timeout implements api.Transport.
func (n *NetConn) Timeout() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.timeout
}

// SetTimeout implements api.Transport. The timeout applies as a rolling
// deadline to subsequent reads and writes; 0 disables it.
func (n *NetConn) SetTimeout(d time.Duration) error {
	n.mu.Lock()
	n.timeout = d
	n.mu.Unlock()
	if d == 0 {
		return n.conn.SetDeadline(time.Time{})
	}
	return nil
}

// Read reads into buf, honoring the configured timeout.
func (n *NetConn) Read(buf []byte) (int, error) {
	if n.released.Load() {
		return 0, api.ErrTransportReleased
	}
	if d := n.Timeout(); d > 0 {
		n.conn.SetReadDeadline(time.Now().Add(d))
	}
	return n.conn.Read(buf)
}

// Write writes buf, honoring the configured timeout.
func (n *NetConn) Write(buf []byte) (int, error) {
	if n.released.Load() {
		return 0, api.ErrTransportReleased
	}
	if d := n.Timeout(); d > 0 {
		n.conn.SetWriteDeadline(time.Now().Add(d))
	}
	return n.conn.Write(buf)
}

// LocalAddr returns the socket's local endpoint.
func (n *NetConn) LocalAddr() net.Addr {
	return n.conn.LocalAddr()
}

// RemoteAddr returns the socket's remote endpoint.
func (n *NetConn) RemoteAddr() net.Addr {
	return n.conn.RemoteAddr()
}

// Release implements api.Transport: closes the socket exactly once.
func (n *NetConn) Release() error {
	if !n.released.CompareAndSwap(false, true) {
		return api.ErrTransportReleased
	}
	return n.conn.Close()
}
