// control/config_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/dispatch/control"
	"github.com/momentics/dispatch/core/queue"
)

func TestConfigStoreDefaults(t *testing.T) {
	cs := control.NewConfigStore()
	if got := cs.UnreadCapacity(100); got != 100 {
		t.Errorf("UnreadCapacity default = %d, want 100", got)
	}
	if got := cs.OverflowPolicy(queue.DropOldest); got != queue.DropOldest {
		t.Errorf("OverflowPolicy default = %v, want drop_oldest", got)
	}
}

func TestConfigStoreMergeAndTypedAccess(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetConfig(map[string]any{
		control.KeyUnreadCapacity: 256,
		control.KeyFiberWorkers:   8,
		control.KeyOverflowPolicy: "reject_newest",
	})
	if got := cs.UnreadCapacity(100); got != 256 {
		t.Errorf("UnreadCapacity = %d, want 256", got)
	}
	if got := cs.FiberWorkers(0); got != 8 {
		t.Errorf("FiberWorkers = %d, want 8", got)
	}
	if got := cs.OverflowPolicy(queue.DropOldest); got != queue.RejectNewest {
		t.Errorf("OverflowPolicy = %v, want reject_newest", got)
	}
	snap := cs.GetSnapshot()
	if snap[control.KeyUnreadCapacity] != 256 {
		t.Errorf("snapshot unread_capacity = %v, want 256", snap[control.KeyUnreadCapacity])
	}
}

func TestConfigStoreReloadListener(t *testing.T) {
	cs := control.NewConfigStore()
	var fired atomic.Int64
	cs.OnReload(func() { fired.Add(1) })
	cs.SetConfig(map[string]any{control.KeyReadBufferSize: 8192})

	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reload listener never fired")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStatsRegistrySnapshot(t *testing.T) {
	sr := control.NewStatsRegistry()
	sr.RegisterProbe("fiber", func() map[string]int64 {
		return map[string]int64{"submitted_tasks": 7}
	})
	sr.RegisterProbe("reactor", func() map[string]int64 {
		return map[string]int64{"live_conns": 2}
	})

	snap := sr.Snapshot()
	if snap["fiber"]["submitted_tasks"] != 7 {
		t.Errorf("fiber probe = %v, want submitted_tasks 7", snap["fiber"])
	}
	if snap["reactor"]["live_conns"] != 2 {
		t.Errorf("reactor probe = %v, want live_conns 2", snap["reactor"])
	}

	sr.UnregisterProbe("fiber")
	if _, ok := sr.Snapshot()["fiber"]; ok {
		t.Error("fiber probe still present after unregister")
	}
}
