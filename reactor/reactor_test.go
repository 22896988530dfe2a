// File: reactor/reactor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loopback integration tests for the TCP reactor: accept, dial, pump,
// disarm, remote-close surfacing, cascading shutdown.

package reactor_test

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/momentics/dispatch/api"
	"github.com/momentics/dispatch/connection"
	"github.com/momentics/dispatch/control"
	"github.com/momentics/dispatch/reactor"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(time.Millisecond)
	}
}

// collector accumulates delivered payload bytes.
type collector struct {
	mu  sync.Mutex
	buf []byte
}

func (c *collector) receive(d api.NetworkData) {
	c.mu.Lock()
	c.buf = append(c.buf, d.Payload...)
	c.mu.Unlock()
}

func (c *collector) bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.buf))
	copy(out, c.buf)
	return out
}

func TestReactorInboundDelivery(t *testing.T) {
	r := reactor.New()
	defer r.Shutdown()

	var col collector
	accepted := make(chan *connection.Connection, 1)
	r.OnAccept(func(c *connection.Connection) {
		if err := c.BeginReceiveWith(col.receive); err != nil {
			t.Errorf("BeginReceiveWith() error: %v", err)
		}
		accepted <- c
	})
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	client, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("client dial error: %v", err)
	}
	defer client.Close()

	conn := <-accepted
	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatalf("client write error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return string(col.bytes()) == "hello" })

	if conn.State() != connection.StateReceiving {
		t.Errorf("State() = %v, want receiving", conn.State())
	}
	if conn.Kind() != api.KindStream {
		t.Errorf("Kind() = %v, want stream", conn.Kind())
	}
}

// Bytes arriving before the application registers a receive callback are
// buffered and flushed, in order, on registration.
func TestReactorBuffersBeforeRegistration(t *testing.T) {
	r := reactor.New(reactor.WithArmOnAccept(), reactor.WithUnreadCapacity(16))
	defer r.Shutdown()

	accepted := make(chan *connection.Connection, 1)
	r.OnAccept(func(c *connection.Connection) { accepted <- c })
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	client, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("client dial error: %v", err)
	}
	defer client.Close()

	conn := <-accepted
	if _, err := client.Write([]byte("early")); err != nil {
		t.Fatalf("client write error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return conn.Unread() > 0 })

	var col collector
	if err := conn.BeginReceiveWith(col.receive); err != nil {
		t.Fatalf("BeginReceiveWith() error: %v", err)
	}
	// The stream may have split the write; buffered segments flush first,
	// any remainder arrives through the live path.
	waitFor(t, 2*time.Second, func() bool { return string(col.bytes()) == "early" })
}

func TestReactorDialAndEcho(t *testing.T) {
	r := reactor.New()
	defer r.Shutdown()

	r.OnAccept(func(c *connection.Connection) {
		c.BeginReceiveWith(func(d api.NetworkData) {
			// Echo back through the reactor's send primitive.
			if err := c.Send(d.Payload); err != nil {
				t.Errorf("echo Send() error: %v", err)
			}
		})
	})
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	conn, err := r.Dial(r.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	var col collector
	if err := conn.BeginReceiveWith(col.receive); err != nil {
		t.Fatalf("BeginReceiveWith() error: %v", err)
	}
	if err := conn.Send([]byte("ping")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return string(col.bytes()) == "ping" })
}

// A fully successful first disposal reports success even though the reactor
// releases the socket while detaching the connection.
func TestReactorDisposeReturnsNil(t *testing.T) {
	r := reactor.New()
	defer r.Shutdown()
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	conn, err := r.Dial(r.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	if err := conn.Dispose(); err != nil {
		t.Errorf("first Dispose() = %v, want nil", err)
	}
	if conn.State() != connection.StateDisposed {
		t.Errorf("State() = %v after dispose, want disposed", conn.State())
	}
}

// Two outbound connections to the same server address stay independently
// routable: disposing one must not detach or reroute the other.
func TestReactorTwoDialsSameRemote(t *testing.T) {
	r := reactor.New()
	defer r.Shutdown()

	r.OnAccept(func(c *connection.Connection) {
		c.BeginReceiveWith(func(d api.NetworkData) {
			if err := c.Send(d.Payload); err != nil {
				t.Errorf("echo Send() error: %v", err)
			}
		})
	})
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	conn1, err := r.Dial(r.Addr().String())
	if err != nil {
		t.Fatalf("first Dial() error: %v", err)
	}
	conn2, err := r.Dial(r.Addr().String())
	if err != nil {
		t.Fatalf("second Dial() error: %v", err)
	}

	var col collector
	if err := conn2.BeginReceiveWith(col.receive); err != nil {
		t.Fatalf("BeginReceiveWith() error: %v", err)
	}

	if err := conn1.Dispose(); err != nil {
		t.Fatalf("Dispose() error: %v", err)
	}
	if err := conn2.Send([]byte("still here")); err != nil {
		t.Fatalf("Send() on live connection = %v, want nil", err)
	}
	waitFor(t, 2*time.Second, func() bool { return string(col.bytes()) == "still here" })
}

// StopReceive disarms the transport: further peer writes reach neither the
// callback nor the buffer until receiving is re-armed.
func TestReactorStopReceiveStopsDelivery(t *testing.T) {
	r := reactor.New()
	defer r.Shutdown()

	var col collector
	accepted := make(chan *connection.Connection, 1)
	r.OnAccept(func(c *connection.Connection) {
		c.BeginReceiveWith(col.receive)
		accepted <- c
	})
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	client, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("client dial error: %v", err)
	}
	defer client.Close()

	conn := <-accepted
	client.Write([]byte("a"))
	waitFor(t, 2*time.Second, func() bool { return len(col.bytes()) == 1 })

	if err := conn.StopReceive(); err != nil {
		t.Fatalf("StopReceive() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := client.Write([]byte("x")); err != nil {
			t.Fatalf("client write error: %v", err)
		}
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(col.bytes()); got != 1 {
		t.Errorf("callback saw %d bytes after disarm, want 1", got)
	}
	if conn.Unread() != 0 {
		t.Errorf("Unread() = %d while disarmed, want 0 (nothing buffered for free)", conn.Unread())
	}

	// Re-arming resumes from a clean slate; the kernel-buffered bytes flow.
	if err := conn.BeginReceiveWith(col.receive); err != nil {
		t.Fatalf("re-arm BeginReceiveWith() error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return len(col.bytes()) == 6 })
}

func TestReactorRemoteCloseSurfacesOnce(t *testing.T) {
	r := reactor.New()
	defer r.Shutdown()

	errCh := make(chan *api.Error, 1)
	discCh := make(chan *api.Error, 1)
	r.OnAccept(func(c *connection.Connection) {
		c.Events().SetError(func(_ any, err *api.Error) { errCh <- err })
		c.Events().SetDisconnect(func(_ any, reason *api.Error) { discCh <- reason })
		c.BeginReceiveWith(func(api.NetworkData) {})
	})
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	client, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("client dial error: %v", err)
	}
	client.Close()

	select {
	case got := <-errCh:
		if got.Code != api.ErrCodeClosed && got.Code != api.ErrCodeConnectionReset {
			t.Errorf("error code = %v, want closed or connection_reset", got.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("remote close never surfaced through the error slot")
	}
	select {
	case reason := <-discCh:
		if reason.Code != api.ErrCodeClosed {
			t.Errorf("disconnect reason = %v, want closed", reason.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never fired")
	}
}

func TestReactorSendUnknownEndpoint(t *testing.T) {
	r := reactor.New()
	defer r.Shutdown()
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}
	if err := r.Send([]byte("x"), addr); !errors.Is(err, api.ErrUnknownEndpoint) {
		t.Errorf("Send() to unknown endpoint = %v, want ErrUnknownEndpoint", err)
	}
}

func TestReactorShutdownCascades(t *testing.T) {
	r := reactor.New()

	accepted := make(chan *connection.Connection, 1)
	r.OnAccept(func(c *connection.Connection) { accepted <- c })
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	client, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("client dial error: %v", err)
	}
	defer client.Close()
	conn := <-accepted

	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if conn.State() != connection.StateDisposed {
		t.Errorf("State() = %v after reactor shutdown, want disposed", conn.State())
	}
	if r.IsActive() {
		t.Error("IsActive() = true after shutdown")
	}
	if _, err := r.Dial("127.0.0.1:1"); !errors.Is(err, api.ErrReactorInactive) {
		t.Errorf("Dial() after shutdown = %v, want ErrReactorInactive", err)
	}
	// Idempotent.
	if err := r.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error: %v", err)
	}

	// The peer observes the close.
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.Read(make([]byte, 1)); err == nil {
		t.Error("client read succeeded after reactor shutdown, want EOF")
	}
}

// Tunables seeded from a configuration store drive buffering behavior: with a
// one-byte read buffer and a two-item pre-registration capacity, the oldest
// of four buffered bytes are evicted before the callback is registered.
func TestReactorConfigStoreTunables(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetConfig(map[string]any{
		control.KeyReadBufferSize: 1,
		control.KeyUnreadCapacity: 2,
	})

	r := reactor.New(reactor.WithConfig(cs), reactor.WithArmOnAccept())
	defer r.Shutdown()

	accepted := make(chan *connection.Connection, 1)
	r.OnAccept(func(c *connection.Connection) { accepted <- c })
	if err := r.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}

	client, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("client dial error: %v", err)
	}
	defer client.Close()
	conn := <-accepted

	if _, err := client.Write([]byte("abcd")); err != nil {
		t.Fatalf("client write error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return conn.UnreadDropped() == 2 })

	var col collector
	if err := conn.BeginReceiveWith(col.receive); err != nil {
		t.Fatalf("BeginReceiveWith() error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return string(col.bytes()) == "cd" })
}
