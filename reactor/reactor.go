// File: reactor/reactor.go
// Package reactor implements the owning endpoint of connections: it accepts
// and dials sockets, constructs Connections around them, and pumps inbound
// bytes into each connection's delivery path.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/momentics/dispatch/api"
	"github.com/momentics/dispatch/connection"
	"github.com/momentics/dispatch/core/concurrency"
	"github.com/momentics/dispatch/core/queue"
	"github.com/momentics/dispatch/transport"
)

// DefaultReadBufferSize is the pump's read buffer size.
const DefaultReadBufferSize = 4096

// TCP is a goroutine-per-connection reactor over stream sockets. It
// implements api.Reactor and api.GracefulShutdown.
type TCP struct {
	fiber    *concurrency.Fiber
	ownFiber bool

	readBufSize   int
	unreadCap     int
	policy        queue.OverflowPolicy
	armOnAccept   bool
	shutdownGrace time.Duration

	mu sync.Mutex
	ln net.Listener
	// conns indexes by connection; byRemote indexes by the exact remote
	// address value handed to the Connection at construction. Keying by
	// identity rather than by address string keeps two connections to the
	// same remote endpoint routable independently.
	conns    map[*connection.Connection]*endpoint
	byRemote map[net.Addr]*endpoint
	onAccept func(*connection.Connection)

	closed   atomic.Bool
	accepted atomic.Int64
	dialed   atomic.Int64
	wg       sync.WaitGroup
}

// endpoint is the reactor-side record of one adopted socket.
type endpoint struct {
	nc   *transport.NetConn
	conn *connection.Connection

	mu       sync.Mutex
	armed    bool
	stopCh   chan struct{}
	pumpDone chan struct{}
}

// New creates a TCP reactor. Without WithFiber the reactor owns a
// fault-isolating fiber sized to the machine and shuts it down on Shutdown.
func New(opts ...Option) *TCP {
	r := &TCP{
		readBufSize:   DefaultReadBufferSize,
		shutdownGrace: 5 * time.Second,
		conns:         make(map[*connection.Connection]*endpoint),
		byRemote:      make(map[net.Addr]*endpoint),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fiber == nil {
		r.fiber = concurrency.NewFiberWithWorkers(0)
		r.ownFiber = true
	}
	return r
}

// Fiber returns the scheduler connections offload work to.
func (r *TCP) Fiber() *concurrency.Fiber {
	return r.fiber
}

// OnAccept registers the single accept hook, replacing any previous one.
// The hook runs on the accept goroutine before the connection's Open; it is
// where applications register their callbacks.
func (r *TCP) OnAccept(fn func(*connection.Connection)) {
	r.mu.Lock()
	r.onAccept = fn
	r.mu.Unlock()
}

// Listen binds addr and starts accepting connections.
func (r *TCP) Listen(addr string) error {
	if r.closed.Load() {
		return api.ErrReactorInactive
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.ln = ln
	r.mu.Unlock()
	r.wg.Add(1)
	go r.acceptLoop(ln)
	return nil
}

// Addr returns the bound listener address, nil before Listen.
func (r *TCP) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ln == nil {
		return nil
	}
	return r.ln.Addr()
}

// Dial connects to addr and returns the Connection constructed around the
// socket. The caller drives Open and BeginReceive.
func (r *TCP) Dial(addr string) (*connection.Connection, error) {
	if r.closed.Load() {
		return nil, api.ErrReactorInactive
	}
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	r.dialed.Add(1)
	return r.adopt(c), nil
}

func (r *TCP) acceptLoop(ln net.Listener) {
	defer r.wg.Done()
	for {
		c, err := ln.Accept()
		if err != nil {
			// Listener closed on shutdown.
			return
		}
		r.accepted.Add(1)
		conn := r.adopt(c)

		r.mu.Lock()
		hook := r.onAccept
		r.mu.Unlock()
		if hook != nil {
			hook(conn)
		}
		conn.Open()
	}
}

// adopt wraps a connected socket into a Connection and registers it.
func (r *TCP) adopt(c net.Conn) *connection.Connection {
	nc := transport.NewNetConn(c)
	remote := c.RemoteAddr()
	conn := connection.New(connection.Config{
		Reactor:        r,
		Transport:      nc,
		Fiber:          r.fiber,
		Local:          c.LocalAddr(),
		Remote:         remote,
		UnreadCapacity: r.unreadCap,
		OverflowPolicy: r.policy,
	})
	ep := &endpoint{nc: nc, conn: conn}

	r.mu.Lock()
	r.conns[conn] = ep
	r.byRemote[remote] = ep
	r.mu.Unlock()

	if r.armOnAccept {
		r.ArmReceive(conn)
	}
	return conn
}

func (r *TCP) lookup(conn any) *endpoint {
	cc, ok := conn.(*connection.Connection)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[cc]
}

// ArmReceive implements api.Reactor: starts the read pump feeding conn.
// Idempotent while armed.
func (r *TCP) ArmReceive(conn any) error {
	ep := r.lookup(conn)
	if ep == nil {
		return api.ErrUnknownEndpoint
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.armed {
		return nil
	}
	// Clear any disarm deadline left on the socket.
	if ep.nc.Timeout() == 0 {
		ep.nc.Conn().SetReadDeadline(time.Time{})
	}
	ep.armed = true
	ep.stopCh = make(chan struct{})
	ep.pumpDone = make(chan struct{})
	r.wg.Add(1)
	go r.pump(ep, ep.stopCh, ep.pumpDone)
	return nil
}

// DisarmReceive implements api.Reactor: stops the pump and waits for it to
// exit, so no further data reaches the connection once this returns. Must
// not be called from inside the receive callback.
func (r *TCP) DisarmReceive(conn any) error {
	ep := r.lookup(conn)
	if ep == nil {
		return api.ErrUnknownEndpoint
	}
	ep.mu.Lock()
	if !ep.armed {
		ep.mu.Unlock()
		return nil
	}
	ep.armed = false
	close(ep.stopCh)
	done := ep.pumpDone
	ep.mu.Unlock()

	// Unblock a pump parked in Read.
	ep.nc.Conn().SetReadDeadline(time.Now())
	<-done
	return nil
}

// pump reads from the socket and hands inbound data to the connection's
// delivery path. It exits on disarm, release, or a transport error, which it
// surfaces once through the connection's error slot before closing.
func (r *TCP) pump(ep *endpoint, stopCh <-chan struct{}, done chan<- struct{}) {
	defer r.wg.Done()
	defer close(done)
	buf := make([]byte, r.readBufSize)
	for {
		n, err := ep.nc.Read(buf)
		select {
		case <-stopCh:
			// Disarmed: data read after the stop signal is dropped, the
			// transport genuinely stops delivering.
			return
		default:
		}
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			ep.conn.Deliver(api.NetworkData{
				Payload:    payload,
				Sender:     ep.nc.RemoteAddr(),
				Receiver:   ep.nc.LocalAddr(),
				ReceivedAt: time.Now(),
			})
		}
		if err == nil {
			continue
		}
		if errors.Is(err, api.ErrTransportReleased) || errors.Is(err, net.ErrClosed) {
			// Closure initiated on our side; disposal already notified.
			return
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			// Application-configured timeout; keep pumping.
			continue
		}
		r.raiseAndClose(ep, err)
		return
	}
}

// raiseAndClose surfaces a transport-origin failure once and transitions the
// connection to closed.
func (r *TCP) raiseAndClose(ep *endpoint, err error) {
	code := api.ErrCodeClosed
	msg := "remote closed connection"
	if errors.Is(err, syscall.ECONNRESET) {
		code = api.ErrCodeConnectionReset
		msg = "connection reset by peer"
	} else if !errors.Is(err, io.EOF) {
		code = api.ErrCodeReceiveFailed
		msg = "receive failed"
	}
	ep.conn.RaiseError(api.WrapError(code, msg, err))
	ep.conn.Close()
}

// CloseConnection implements api.Reactor: detaches conn and closes its
// socket. Safe to call for connections already detached.
func (r *TCP) CloseConnection(conn any) error {
	cc, ok := conn.(*connection.Connection)
	if !ok {
		return api.ErrUnknownEndpoint
	}
	r.mu.Lock()
	ep := r.conns[cc]
	if ep != nil {
		delete(r.conns, cc)
		if r.byRemote[cc.RemoteAddr()] == ep {
			delete(r.byRemote, cc.RemoteAddr())
		}
	}
	r.mu.Unlock()
	if ep == nil {
		return nil
	}

	ep.mu.Lock()
	if ep.armed {
		ep.armed = false
		close(ep.stopCh)
	}
	ep.mu.Unlock()

	if err := ep.nc.Release(); err != nil && !errors.Is(err, api.ErrTransportReleased) {
		return err
	}
	return nil
}

// Send implements api.Reactor: writes payload to the connection owning the
// remote endpoint, blocking until the underlying write returns. remote must
// be the address value the reactor supplied at construction (a Connection's
// RemoteAddr), so connections sharing a remote address stay distinguishable.
func (r *TCP) Send(payload []byte, remote net.Addr) error {
	if remote == nil {
		return api.ErrUnknownEndpoint
	}
	r.mu.Lock()
	ep := r.byRemote[remote]
	r.mu.Unlock()
	if ep == nil {
		return api.ErrUnknownEndpoint
	}
	for len(payload) > 0 {
		n, err := ep.nc.Write(payload)
		if err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

// IsActive implements api.Reactor.
func (r *TCP) IsActive() bool {
	return !r.closed.Load()
}

// Stats returns reactor counters.
func (r *TCP) Stats() map[string]int64 {
	r.mu.Lock()
	live := int64(len(r.conns))
	r.mu.Unlock()
	return map[string]int64{
		"accepted_conns": r.accepted.Load(),
		"dialed_conns":   r.dialed.Load(),
		"live_conns":     live,
	}
}

// Shutdown implements api.GracefulShutdown: stops accepting, cascades
// disposal to every live connection, drains the owned fiber within the
// configured grace period and waits for all pumps to exit. Idempotent.
func (r *TCP) Shutdown() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.mu.Lock()
	ln := r.ln
	snapshot := make([]*connection.Connection, 0, len(r.conns))
	for conn := range r.conns {
		snapshot = append(snapshot, conn)
	}
	r.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	for _, conn := range snapshot {
		conn.Dispose()
	}
	if r.ownFiber {
		r.fiber.Shutdown(r.shutdownGrace)
	}
	r.wg.Wait()
	return nil
}
