// File: connection/connection.go
// Package connection implements the per-socket dispatch facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection bridges inbound data delivery from the transport layer to the
// callbacks registered on its event loop, buffering into a bounded queue
// while no receive callback is registered. No data is lost and none is
// delivered twice across the not-yet-registered to registered transition.
//
// Callback bodies run on whatever goroutine delivers the event; heavy work
// must be handed to the Fiber explicitly.

package connection

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/dispatch/api"
	"github.com/momentics/dispatch/core/concurrency"
	"github.com/momentics/dispatch/core/queue"
)

// DefaultUnreadCapacity bounds the per-connection buffer of data that arrived
// with no receive callback registered.
const DefaultUnreadCapacity = 100

// State is the lifecycle state of a Connection.
type State int32

const (
	// StateOpen: socket connected, not yet receiving.
	StateOpen State = iota
	// StateReceiving: a receive callback is registered and delivery is armed.
	StateReceiving
	// StateClosed: explicitly closed or detached by the owning reactor.
	StateClosed
	// StateDisposed: terminal; resources released.
	StateDisposed
)

// String returns the symbolic name of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateReceiving:
		return "receiving"
	case StateClosed:
		return "closed"
	default:
		return "disposed"
	}
}

// Config carries the collaborators the owning reactor supplies at
// construction time.
type Config struct {
	Reactor   api.Reactor
	Transport api.Transport
	Fiber     *concurrency.Fiber
	Local     net.Addr
	Remote    net.Addr

	// UnreadCapacity bounds the buffer of data arriving before a receive
	// callback is registered; 0 selects DefaultUnreadCapacity.
	UnreadCapacity int
	// OverflowPolicy decides what happens when that buffer is full. The
	// default, queue.DropOldest, evicts the oldest buffered item; the I/O
	// path is never blocked either way.
	OverflowPolicy queue.OverflowPolicy
}

// Connection is the public-facing object applications hold for one socket.
// It holds exactly one transport handle for its lifetime and releases it
// exactly once through Dispose.
type Connection struct {
	reactor   api.Reactor
	transport api.Transport
	fiber     *concurrency.Fiber
	local     net.Addr
	remote    net.Addr
	createdAt time.Time

	loop   *EventLoop
	unread *queue.BoundedQueue[api.NetworkData]

	// recvMu guards the registered-or-not decision on the delivery path and
	// the flush transition, so no item is lost or duplicated between the
	// buffered and the live path.
	recvMu   sync.Mutex
	flushing bool

	state    atomic.Int32
	disposed atomic.Bool
}

// New constructs a Connection around the collaborators in cfg. The reactor
// calls this when a socket becomes connected, inbound or outbound.
func New(cfg Config) *Connection {
	capacity := cfg.UnreadCapacity
	if capacity <= 0 {
		capacity = DefaultUnreadCapacity
	}
	return &Connection{
		reactor:   cfg.Reactor,
		transport: cfg.Transport,
		fiber:     cfg.Fiber,
		local:     cfg.Local,
		remote:    cfg.Remote,
		createdAt: time.Now(),
		loop:      NewEventLoop(),
		unread:    queue.New[api.NetworkData](capacity, cfg.OverflowPolicy),
	}
}

// Events exposes the callback slots for connect, disconnect and error
// registration. Receive registration goes through BeginReceiveWith and
// StopReceive, which also arm and disarm the transport.
func (c *Connection) Events() *EventLoop {
	return c.loop
}

// LocalAddr returns the local endpoint descriptor.
func (c *Connection) LocalAddr() net.Addr { return c.local }

// RemoteAddr returns the remote endpoint descriptor.
func (c *Connection) RemoteAddr() net.Addr { return c.remote }

// CreatedAt returns the construction timestamp.
func (c *Connection) CreatedAt() time.Time { return c.createdAt }

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Kind projects the stream/datagram orientation of the transport handle.
func (c *Connection) Kind() api.TransportKind {
	return c.transport.Kind()
}

// Timeout projects the transport's configured I/O timeout.
func (c *Connection) Timeout() time.Duration {
	return c.transport.Timeout()
}

// Available projects the number of readable bytes. Never cached.
func (c *Connection) Available() int {
	return c.transport.Available()
}

// IsOpen projects the transport's connected state.
func (c *Connection) IsOpen() bool {
	return c.transport.IsConnected()
}

// IsActive reports whether the owning reactor is in a receiving-capable
// state.
func (c *Connection) IsActive() bool {
	return c.reactor.IsActive()
}

// Unread returns how many items are buffered awaiting a receive callback.
func (c *Connection) Unread() int {
	return c.unread.Len()
}

// UnreadDropped returns how many items the overflow policy discarded.
func (c *Connection) UnreadDropped() int64 {
	return c.unread.Dropped()
}

// Open invokes the registered connect callback with the remote endpoint and
// this connection. No-op when the slot is empty. The socket-level handshake
// precedes Connection construction and is not performed here.
func (c *Connection) Open() {
	if fn := c.loop.Connect(); fn != nil {
		fn(c.remote, c)
	}
}

// BeginReceive arms transport-level delivery using the already-registered
// receive callback. Fails with api.ErrNoReceiveCallback before any arming
// when the slot is empty: a connection must not be told to start receiving
// into a void.
func (c *Connection) BeginReceive() error {
	if c.disposed.Load() {
		return api.ErrConnectionDisposed
	}
	if c.loop.Receive() == nil {
		return api.ErrNoReceiveCallback
	}
	c.markReceiving()
	return c.reactor.ArmReceive(c)
}

// BeginReceiveWith registers cb as the receive callback, synchronously
// flushes every buffered item to it in arrival order, then arms receiving.
// Every item that arrived before this call is delivered before any item that
// arrives after it.
func (c *Connection) BeginReceiveWith(cb api.ReceiveFunc) error {
	if c.disposed.Load() {
		return api.ErrConnectionDisposed
	}
	if cb == nil {
		return api.ErrNoReceiveCallback
	}

	c.recvMu.Lock()
	c.loop.SetReceive(cb)
	c.flushing = true
	c.recvMu.Unlock()

	// Drain until provably empty. Deliveries racing with the flush keep
	// buffering (flushing is set) and are picked up by a later pass, so
	// arrival order is preserved end to end.
	for {
		buffered := c.unread.DrainAll()
		if len(buffered) == 0 {
			c.recvMu.Lock()
			if c.unread.Len() == 0 {
				c.flushing = false
				c.recvMu.Unlock()
				break
			}
			c.recvMu.Unlock()
			continue
		}
		for _, data := range buffered {
			cb(data)
		}
	}

	c.markReceiving()
	return c.reactor.ArmReceive(c)
}

// StopReceive disarms delivery at the transport level and clears the receive
// slot. A future BeginReceive re-arms from a clean slate; while disarmed the
// transport stops delivering, nothing is buffered for free.
func (c *Connection) StopReceive() error {
	if c.disposed.Load() {
		return api.ErrConnectionDisposed
	}
	err := c.reactor.DisarmReceive(c)
	c.recvMu.Lock()
	c.loop.SetReceive(nil)
	c.recvMu.Unlock()
	c.state.CompareAndSwap(int32(StateReceiving), int32(StateOpen))
	return err
}

// Deliver is the transport-side entry point, invoked by the owning reactor's
// I/O path, not by applications. Data goes synchronously to the registered
// receive callback, or into the bounded buffer when none is registered. A
// full buffer applies its overflow policy rather than blocking the I/O path.
func (c *Connection) Deliver(data api.NetworkData) {
	if c.disposed.Load() {
		return
	}
	c.recvMu.Lock()
	cb := c.loop.Receive()
	if cb == nil || c.flushing {
		c.unread.Enqueue(data)
		c.recvMu.Unlock()
		return
	}
	c.recvMu.Unlock()
	cb(data)
}

// RaiseError is the transport-side channel for surfacing transport-origin
// failures through the error slot, tagged with this connection.
func (c *Connection) RaiseError(err *api.Error) {
	c.loop.EmitError(c, err)
}

// Close notifies the owning reactor to detach this connection, then invokes
// the disconnect callback with a standardized closed reason.
//
// Close is deliberately not idempotent: each direct call fires the
// disconnect callback again. Dispose is the idempotent teardown path.
func (c *Connection) Close() error {
	if c.disposed.Load() {
		return api.ErrConnectionDisposed
	}
	return c.doClose()
}

func (c *Connection) doClose() error {
	err := c.reactor.CloseConnection(c)
	c.state.Store(int32(StateClosed))
	if fn := c.loop.Disconnect(); fn != nil {
		fn(c, api.NewError(api.ErrCodeClosed, "connection closed"))
	}
	return err
}

// Send hands payload and the remote endpoint identity to the owning
// reactor's send primitive, blocking until the underlying send returns.
func (c *Connection) Send(payload []byte) error {
	if c.disposed.Load() {
		return api.ErrConnectionDisposed
	}
	return c.reactor.Send(payload, c.remote)
}

// SendAsync offloads the blocking send onto the Fiber's worker pool so the
// calling goroutine is never blocked. Failures surface through the error
// slot rather than crashing the scheduler.
func (c *Connection) SendAsync(payload []byte) error {
	if c.disposed.Load() {
		return api.ErrConnectionDisposed
	}
	if c.fiber == nil || !c.fiber.Submit(func() {
		if err := c.Send(payload); err != nil {
			c.loop.EmitError(c, api.WrapError(api.ErrCodeSendFailed, "async send failed", err).
				WithContext("remote", c.remote.String()))
		}
	}) {
		return concurrency.ErrFiberStopped
	}
	return nil
}

// Dispose tears the connection down exactly once: Close is reached once,
// the transport handle is released once, and the state becomes terminal.
// Safe to call from any goroutine and safe even if the transport handle was
// never successfully opened. Further calls are no-ops.
func (c *Connection) Dispose() error {
	if !c.disposed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.doClose()
	if c.transport != nil {
		// The owning reactor may have released the handle while detaching
		// the connection; that still counts as a successful teardown.
		if relErr := c.transport.Release(); relErr != nil &&
			!errors.Is(relErr, api.ErrTransportReleased) && err == nil {
			err = relErr
		}
	}
	c.state.Store(int32(StateDisposed))
	return err
}

func (c *Connection) markReceiving() {
	// Closed and disposed states are sticky.
	c.state.CompareAndSwap(int32(StateOpen), int32(StateReceiving))
}
