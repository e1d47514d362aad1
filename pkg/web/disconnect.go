package web

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"
)

// ErrClientGone is the cancellation cause of predictions whose client closed
// the connection. It matches context.Canceled.
var ErrClientGone = fmt.Errorf("client closed the connection: %w", context.Canceled)

const closePollInterval = 100 * time.Millisecond

// cancelOnClose polls conn while a prediction runs and cancels it with
// ErrClientGone once the peer has gone. stop must be called before the
// handler returns; it waits for the poller to exit.
func cancelOnClose(conn net.Conn, cancel context.CancelCauseFunc, onClose func()) (stop func()) {
	rc := rawConn(conn)
	if rc == nil {
		return func() {}
	}

	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(closePollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
			}

			closed, supported := peerClosed(rc)
			if !supported {
				return
			}

			if closed {
				onClose()
				cancel(ErrClientGone)

				return
			}
		}
	}()

	return func() {
		close(quit)
		<-done
	}
}

func rawConn(conn net.Conn) syscall.RawConn {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		return nil
	}

	return rc
}
