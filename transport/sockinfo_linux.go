//go:build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Readable-byte projection via the TIOCINQ ioctl (FIONREAD on Linux).

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// readableBytes returns the kernel's count of bytes readable without
// blocking, or 0 when the connection carries no raw file descriptor.
func readableBytes(conn net.Conn) int {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0
	}
	var avail int
	raw.Control(func(fd uintptr) {
		avail, _ = unix.IoctlGetInt(int(fd), unix.TIOCINQ)
	})
	return avail
}
