// control/stats.go
// Author: momentics <momentics@gmail.com>
//
// Probe registry aggregating component stats maps for monitoring.

package control

import "sync"

// StatsRegistry aggregates named probes, each exporting a counter map.
// Components (fiber executors, reactors, connections) register a probe and
// keep ownership of their own counters.
type StatsRegistry struct {
	mu     sync.RWMutex
	probes map[string]func() map[string]int64
}

// NewStatsRegistry creates an empty registry.
func NewStatsRegistry() *StatsRegistry {
	return &StatsRegistry{
		probes: make(map[string]func() map[string]int64),
	}
}

// RegisterProbe adds or replaces a named stats probe.
func (sr *StatsRegistry) RegisterProbe(name string, fn func() map[string]int64) {
	sr.mu.Lock()
	sr.probes[name] = fn
	sr.mu.Unlock()
}

// UnregisterProbe removes a probe.
func (sr *StatsRegistry) UnregisterProbe(name string) {
	sr.mu.Lock()
	delete(sr.probes, name)
	sr.mu.Unlock()
}

// Snapshot invokes every probe and returns the merged view keyed by probe
// name.
func (sr *StatsRegistry) Snapshot() map[string]map[string]int64 {
	sr.mu.RLock()
	probes := make(map[string]func() map[string]int64, len(sr.probes))
	for k, v := range sr.probes {
		probes[k] = v
	}
	sr.mu.RUnlock()

	out := make(map[string]map[string]int64, len(probes))
	for name, fn := range probes {
		out[name] = fn()
	}
	return out
}
