// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the boundary contracts.

package fake

import (
	"sync"
	"time"

	"github.com/momentics/dispatch/api"
)

// Transport is a controllable implementation of api.Transport.
type Transport struct {
	mu        sync.Mutex
	connected bool
	available int
	kind      api.TransportKind
	blocking  bool
	timeout   time.Duration
	releases  int
	relError  error
}

// NewTransport creates a connected, blocking stream transport.
func NewTransport() *Transport {
	return &Transport{
		connected: true,
		blocking:  true,
		kind:      api.KindStream,
	}
}

// IsConnected implements api.Transport.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Available implements api.Transport.
func (t *Transport) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.available
}

// Kind implements api.Transport.
func (t *Transport) Kind() api.TransportKind {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kind
}

// Blocking implements api.Transport.
func (t *Transport) Blocking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blocking
}

// SetBlocking implements api.Transport.
func (t *Transport) SetBlocking(blocking bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocking = blocking
	return nil
}

// Timeout implements api.Transport.
func (t *Transport) Timeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}

// SetTimeout implements api.Transport.
func (t *Transport) SetTimeout(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = d
	return nil
}

// Release implements api.Transport. Counts calls; only the first succeeds.
func (t *Transport) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releases++
	if t.releases > 1 {
		return api.ErrTransportReleased
	}
	if t.relError != nil {
		return t.relError
	}
	t.connected = false
	return nil
}

// Releases returns how many times Release was called.
func (t *Transport) Releases() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.releases
}

// SetConnected overrides the connected projection.
func (t *Transport) SetConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = connected
}

// SetAvailable overrides the readable-bytes projection.
func (t *Transport) SetAvailable(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.available = n
}

// SetKind overrides the transport kind.
func (t *Transport) SetKind(kind api.TransportKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kind = kind
}

// SetReleaseError configures Release to fail.
func (t *Transport) SetReleaseError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.relError = err
}
