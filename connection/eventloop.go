// File: connection/eventloop.go
// Package connection implements the per-socket dispatch facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventLoop holds the four callback slots of one connection. Each slot holds
// at most one callback: registering replaces any previous one, registering
// nil clears the slot. This is a deliberate single-subscriber design, not a
// multicast event list.

package connection

import (
	"sync"

	"github.com/momentics/dispatch/api"
)

// EventLoop is the per-connection holder of the receive, connect, disconnect
// and error callback slots. Slot reads for invocation are synchronized with
// concurrent registration.
type EventLoop struct {
	mu           sync.RWMutex
	onReceive    api.ReceiveFunc
	onConnect    api.ConnectFunc
	onDisconnect api.DisconnectFunc
	onError      api.ErrorFunc
}

// NewEventLoop creates an EventLoop with all slots empty.
func NewEventLoop() *EventLoop {
	return &EventLoop{}
}

// SetReceive replaces the receive slot.
func (el *EventLoop) SetReceive(fn api.ReceiveFunc) {
	el.mu.Lock()
	el.onReceive = fn
	el.mu.Unlock()
}

// Receive returns the current receive callback, nil when the slot is empty.
func (el *EventLoop) Receive() api.ReceiveFunc {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.onReceive
}

// SetConnect replaces the connect slot.
func (el *EventLoop) SetConnect(fn api.ConnectFunc) {
	el.mu.Lock()
	el.onConnect = fn
	el.mu.Unlock()
}

// Connect returns the current connect callback.
func (el *EventLoop) Connect() api.ConnectFunc {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.onConnect
}

// SetDisconnect replaces the disconnect slot.
func (el *EventLoop) SetDisconnect(fn api.DisconnectFunc) {
	el.mu.Lock()
	el.onDisconnect = fn
	el.mu.Unlock()
}

// Disconnect returns the current disconnect callback.
func (el *EventLoop) Disconnect() api.DisconnectFunc {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.onDisconnect
}

// SetError replaces the error slot. The callback is bound to its connection
// at emit time so handlers are told which connection raised the error.
func (el *EventLoop) SetError(fn api.ErrorFunc) {
	el.mu.Lock()
	el.onError = fn
	el.mu.Unlock()
}

// EmitError invokes the error slot with the originating connection. No-op
// when the slot is empty.
func (el *EventLoop) EmitError(conn any, err *api.Error) {
	el.mu.RLock()
	fn := el.onError
	el.mu.RUnlock()
	if fn != nil {
		fn(conn, err)
	}
}
