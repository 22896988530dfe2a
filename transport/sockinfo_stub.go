//go:build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback readable-byte projection for platforms without FIONREAD support.

package transport

import "net"

func readableBytes(net.Conn) int {
	return 0
}
