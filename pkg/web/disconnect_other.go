//go:build !linux && !darwin && !freebsd

package web

import "syscall"

// peerClosed is not implemented here; disconnects surface when the response
// is written.
func peerClosed(syscall.RawConn) (closed, supported bool) {
	return false, false
}
