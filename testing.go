package monodbg

import (
	"net"
	"testing"
	"time"

	"github.com/go-monodbg/monodbg/mockdebuggee"
)

// reserveLoopbackAddr binds an ephemeral loopback port, reports its
// address, and releases it immediately so Open can bind the same port.
// The window between release and Open's own Listen is covered by the
// retry loop in dialRetry below.
func reserveLoopbackAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve loopback addr: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func dialRetry(addr string) (*mockdebuggee.Debuggee, error) {
	deadline := time.Now().Add(2 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		mock, err := mockdebuggee.Dial(addr)
		if err == nil {
			return mock, nil
		}
		lastErr = err
		time.Sleep(5 * time.Millisecond)
	}
	return nil, lastErr
}

// OpenWithMockDebuggee starts a Debugger session against a freshly
// dialed mockdebuggee.Debuggee: it drives Open and the mock through the
// handshake and initial setup sequence (VM_START, version check,
// protocol negotiation, ASSEMBLY_LOAD subscription), returning both
// once the session is Ready. The caller registers extra mock handlers
// before facade calls that need them; both the Debugger and the mock
// are closed automatically at test cleanup.
func OpenWithMockDebuggee(t *testing.T, cfg *Config) (*Debugger, *mockdebuggee.Debuggee) {
	t.Helper()

	addr := reserveLoopbackAddr(t)

	type openResult struct {
		d   *Debugger
		err error
	}
	resultCh := make(chan openResult, 1)
	go func() {
		d, err := Open(addr, cfg)
		resultCh <- openResult{d, err}
	}()

	mock, err := dialRetry(addr)
	if err != nil {
		t.Fatalf("mockdebuggee dial: %v", err)
	}
	if err := mock.SendVMStart(1); err != nil {
		t.Fatalf("mockdebuggee send vm start: %v", err)
	}

	res := <-resultCh
	if res.err != nil {
		mock.Close()
		t.Fatalf("Open: %v", res.err)
	}

	t.Cleanup(func() {
		mock.Close()
		res.d.Close()
	})

	return res.d, mock
}
