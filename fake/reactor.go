// Package fake
// Author: momentics <momentics@gmail.com>
//
// Controllable owning-reactor fake recording arm/disarm, close and send
// activity at the boundary.

package fake

import (
	"net"
	"sync"
)

// Reactor is a controllable implementation of api.Reactor.
type Reactor struct {
	mu        sync.Mutex
	active    bool
	armed     map[any]bool
	closed    []any
	sent      [][]byte
	sentTo    []net.Addr
	sendError error
	armError  error
}

// NewReactor creates an active fake reactor.
func NewReactor() *Reactor {
	return &Reactor{
		active: true,
		armed:  make(map[any]bool),
	}
}

// CloseConnection implements api.Reactor.
func (r *Reactor) CloseConnection(conn any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.armed, conn)
	r.closed = append(r.closed, conn)
	return nil
}

// Send implements api.Reactor.
func (r *Reactor) Send(payload []byte, remote net.Addr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendError != nil {
		return r.sendError
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	r.sent = append(r.sent, buf)
	r.sentTo = append(r.sentTo, remote)
	return nil
}

// ArmReceive implements api.Reactor.
func (r *Reactor) ArmReceive(conn any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.armError != nil {
		return r.armError
	}
	r.armed[conn] = true
	return nil
}

// DisarmReceive implements api.Reactor.
func (r *Reactor) DisarmReceive(conn any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed[conn] = false
	return nil
}

// IsActive implements api.Reactor.
func (r *Reactor) IsActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Armed reports whether conn is currently armed for delivery.
func (r *Reactor) Armed(conn any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed[conn]
}

// CloseCount returns how many times conn was detached.
func (r *Reactor) CloseCount(conn any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.closed {
		if c == conn {
			n++
		}
	}
	return n
}

// Sent returns the payloads pushed through Send.
func (r *Reactor) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.sent))
	copy(out, r.sent)
	return out
}

// SetActive overrides the active flag.
func (r *Reactor) SetActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = active
}

// SetSendError configures Send to fail.
func (r *Reactor) SetSendError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendError = err
}

// SetArmError configures ArmReceive to fail.
func (r *Reactor) SetArmError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armError = err
}
