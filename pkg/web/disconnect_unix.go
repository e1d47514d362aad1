//go:build linux || darwin || freebsd

package web

import (
	"errors"
	"syscall"
)

// peerClosed peeks at the socket without consuming pending bytes. A zero
// byte read means the peer sent FIN.
func peerClosed(rc syscall.RawConn) (closed, supported bool) {
	buf := make([]byte, 1)

	err := rc.Read(func(fd uintptr) bool {
		n, _, rerr := syscall.Recvfrom(int(fd), buf, syscall.MSG_PEEK|syscall.MSG_DONTWAIT)

		switch {
		case rerr == nil:
			closed = n == 0
		case errors.Is(rerr, syscall.EAGAIN), errors.Is(rerr, syscall.EWOULDBLOCK), errors.Is(rerr, syscall.EINTR):
			closed = false
		default:
			closed = true
		}

		return true
	})
	if err != nil {
		return true, true
	}

	return closed, true
}
