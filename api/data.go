// File: api/data.go
// Package api defines the data unit exchanged at the connection boundary.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"net"
	"time"
)

// TransportKind distinguishes stream-oriented from datagram-oriented
// transports. It is derived from the underlying socket's protocol and never
// changes for the life of a connection.
type TransportKind int

const (
	KindStream TransportKind = iota
	KindDatagram
)

// String returns the symbolic name of the kind.
func (k TransportKind) String() string {
	if k == KindDatagram {
		return "datagram"
	}
	return "stream"
}

// NetworkData is an opaque payload plus endpoint metadata. The dispatch core
// never inspects Payload contents; framing and codecs belong to layers above.
type NetworkData struct {
	Payload    []byte
	Sender     net.Addr
	Receiver   net.Addr
	ReceivedAt time.Time
}
