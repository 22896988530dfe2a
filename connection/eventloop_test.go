// File: connection/eventloop_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package connection_test

import (
	"testing"

	"github.com/momentics/dispatch/api"
	"github.com/momentics/dispatch/connection"
)

// Each slot holds at most one callback: registering replaces, nil clears.
func TestEventLoopSingleSlotSemantics(t *testing.T) {
	el := connection.NewEventLoop()
	if el.Receive() != nil {
		t.Error("fresh event loop has a receive callback")
	}

	var first, second int
	el.SetReceive(func(api.NetworkData) { first++ })
	el.SetReceive(func(api.NetworkData) { second++ })
	el.Receive()(api.NetworkData{})
	if first != 0 || second != 1 {
		t.Errorf("after replace: first=%d second=%d, want 0 1", first, second)
	}

	el.SetReceive(nil)
	if el.Receive() != nil {
		t.Error("SetReceive(nil) did not clear the slot")
	}
}

func TestEventLoopEmitError(t *testing.T) {
	el := connection.NewEventLoop()

	// Empty slot: no-op, no panic.
	el.EmitError("conn", api.NewError(api.ErrCodeInternal, "x"))

	var gotConn any
	var gotErr *api.Error
	el.SetError(func(conn any, err *api.Error) {
		gotConn = conn
		gotErr = err
	})
	want := api.NewError(api.ErrCodeClosed, "done")
	el.EmitError("conn-7", want)

	if gotConn != "conn-7" {
		t.Errorf("EmitError conn = %v, want conn-7", gotConn)
	}
	if gotErr != want {
		t.Errorf("EmitError err = %v, want %v", gotErr, want)
	}
}

func TestEventLoopDisconnectSlot(t *testing.T) {
	el := connection.NewEventLoop()
	var fired int
	el.SetDisconnect(func(any, *api.Error) { fired++ })
	el.Disconnect()(nil, nil)
	el.SetDisconnect(nil)
	if el.Disconnect() != nil {
		t.Error("SetDisconnect(nil) did not clear the slot")
	}
	if fired != 1 {
		t.Errorf("disconnect fired %d times, want 1", fired)
	}
}
