// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and reload
// propagation, plus typed accessors for the dispatch tunables.

package control

import (
	"sync"

	"github.com/momentics/dispatch/core/queue"
)

// Config keys understood by the dispatch core.
const (
	KeyUnreadCapacity = "unread_capacity"
	KeyOverflowPolicy = "overflow_policy"
	KeyFiberWorkers   = "fiber_workers"
	KeyReadBufferSize = "read_buffer_size"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener
// support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// SetConfig merges new values and dispatches reload listeners.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := make([]func(), len(cs.listeners))
	copy(listeners, cs.listeners)
	cs.mu.Unlock()
	for _, fn := range listeners {
		go fn()
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	cs.listeners = append(cs.listeners, fn)
	cs.mu.Unlock()
}

func (cs *ConfigStore) intOr(key string, def int) int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if v, ok := cs.config[key].(int); ok {
		return v
	}
	return def
}

// UnreadCapacity returns the configured per-connection buffer capacity.
func (cs *ConfigStore) UnreadCapacity(def int) int {
	return cs.intOr(KeyUnreadCapacity, def)
}

// FiberWorkers returns the configured fiber pool width.
func (cs *ConfigStore) FiberWorkers(def int) int {
	return cs.intOr(KeyFiberWorkers, def)
}

// ReadBufferSize returns the configured pump read buffer size.
func (cs *ConfigStore) ReadBufferSize(def int) int {
	return cs.intOr(KeyReadBufferSize, def)
}

// OverflowPolicy returns the configured buffer overflow policy.
func (cs *ConfigStore) OverflowPolicy(def queue.OverflowPolicy) queue.OverflowPolicy {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	switch v := cs.config[KeyOverflowPolicy].(type) {
	case queue.OverflowPolicy:
		return v
	case string:
		if v == "reject_newest" {
			return queue.RejectNewest
		}
		if v == "drop_oldest" {
			return queue.DropOldest
		}
	}
	return def
}
