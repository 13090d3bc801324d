package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// TuneSocket disables Nagle's algorithm and enables address reuse on
// conn. The debugger wire protocol is small, latency-sensitive
// request/reply traffic; Nagling a handful of bytes behind a 40ms ACK
// delay is the dominant cost for interactive stepping, the same class
// of problem the underlying stack otherwise controls through direct
// socket-option syscalls rather than net.Dialer knobs (there is no
// exported stdlib TCP_NODELAY toggle on an already-established conn
// outside *net.TCPConn's own, limited SetNoDelay).
func TuneSocket(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return fmt.Errorf("get raw conn: %w", err)
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); e != nil {
			sockErr = fmt.Errorf("set TCP_NODELAY: %w", e)
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); e != nil {
			sockErr = fmt.Errorf("set SO_REUSEADDR: %w", e)
			return
		}
	})
	if err != nil {
		return fmt.Errorf("control raw conn: %w", err)
	}
	return sockErr
}
