// Package monodbg is a client for the Mono Soft Debugger Wire Protocol:
// framing, request/reply correlation, event dispatch, and a typed
// debugger facade over a single TCP connection to a debuggee process.
package monodbg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-monodbg/monodbg/internal/cache"
	"github.com/go-monodbg/monodbg/internal/events"
	"github.com/go-monodbg/monodbg/internal/logging"
	"github.com/go-monodbg/monodbg/internal/protocol"
	"github.com/go-monodbg/monodbg/internal/transport"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// connState is the session's connection state, independent of the
// debuggee's own run/step mode.
type connState int32

const (
	stateWaitHandshake connState = iota
	stateReady
	stateProtocolError
	stateClosed
)

// Debugger is one session against one debuggee connection. Not safe
// for use after Close; safe for concurrent calls from multiple
// goroutines while open (facade calls serialize through an internal
// send lock and a shared reply table).
type Debugger struct {
	cfg       Config
	sessionID uuid.UUID
	logger    *logging.Logger
	metrics   *Metrics
	cache     *cache.Cache

	listener net.Listener
	conn     net.Conn
	table    *transport.Table
	sendMu   sync.Mutex

	mu                  sync.Mutex
	state               connState
	stepMode            StepMode
	activeStepRequestID uint32
	breakpoints         map[bpKey]uint32

	eg         *errgroup.Group
	egCtx      context.Context
	cancel     context.CancelFunc
	closeOnce  sync.Once
	ready      chan error // receives nil once initial setup succeeds, or the failure
	vmStartCh  chan events.Event
}

type bpKey struct {
	MethodID uint32
	ILOffset uint64
}

// Open listens on loopback at addr (an ephemeral port if addr is empty
// or ends in ":0"), accepts exactly one connection, refuses any
// further incoming connection, performs the wire handshake, and runs
// the initial setup sequence (VM_START, version check, protocol
// version negotiation, ASSEMBLY_LOAD subscription) before returning.
func Open(addr string, cfg *Config) (*Debugger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("monodbg: listen: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	c, err := cache.New(cfg.CacheSize)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("monodbg: cache: %w", err)
	}

	d := &Debugger{
		cfg:         *cfg,
		sessionID:   uuid.New(),
		logger:      logger,
		metrics:     NewMetrics(),
		cache:       c,
		listener:    ln,
		table:       transport.NewTable(),
		state:       stateWaitHandshake,
		breakpoints: make(map[bpKey]uint32),
		ready:       make(chan error, 1),
		vmStartCh:   make(chan events.Event, 1),
	}

	conn, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("monodbg: accept: %w", err)
	}
	// Excess incoming connections are refused: close the listener now
	// that the one debuggee connection has been accepted.
	ln.Close()

	if err := transport.TuneSocket(conn); err != nil {
		d.logger.Warn("socket tuning failed", "session", d.sessionID, "err", err)
	}
	d.conn = conn

	egCtx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(egCtx)
	d.eg = eg
	d.egCtx = egCtx
	d.cancel = cancel

	framer := transport.New(conn, logger, d.onHandshake, d.onFrame)
	eg.Go(func() error {
		err := framer.Run(egCtx.Done())
		d.fail(err)
		return err
	})

	select {
	case err := <-d.ready:
		if err != nil {
			d.Close()
			return nil, err
		}
	case <-time.After(transport.DefaultTimeout):
		d.Close()
		return nil, fmt.Errorf("monodbg: %w: initial setup timed out", ErrDisconnected)
	}

	return d, nil
}

// Port reports the ephemeral (or fixed) port Open bound to.
func (d *Debugger) Port() int {
	if tcpAddr, ok := d.listener.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

// SessionID is the random identifier minted at Open, used only for log
// attribution.
func (d *Debugger) SessionID() uuid.UUID { return d.sessionID }

// Metrics returns a live handle to this session's counters.
func (d *Debugger) Metrics() *Metrics { return d.metrics }

// ClearCache purges the method/type info cache.
func (d *Debugger) ClearCache() { d.cache.Clear() }

// IsOpen reports whether the session can still accept calls.
func (d *Debugger) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == stateReady
}

// onHandshake echoes the handshake literal back to the debuggee, as
// required by the wire protocol before any frame traffic.
func (d *Debugger) onHandshake() error {
	_, err := d.conn.Write([]byte(protocol.HandshakeLiteral))
	if err != nil {
		return fmt.Errorf("echo handshake: %w", err)
	}
	go d.runInitialSetup()
	return nil
}

// onFrame is the framer's delivery callback: replies resolve pending
// transactions, CMD_SET_EVENT frames are parsed and dispatched.
func (d *Debugger) onFrame(f transport.Frame) {
	if f.IsReply {
		d.table.Resolve(f.ID, transport.Reply{Payload: f.Payload, Code: f.ErrorCode})
		return
	}
	if f.CmdSet != protocol.CmdSetEvent {
		d.fail(fmt.Errorf("unexpected inbound command set %d", f.CmdSet))
		return
	}

	var evs []events.Event
	var err error
	if f.Cmd == protocol.CmdCompositeEvent {
		evs, err = events.ParseComposite(f.Payload)
	} else {
		var ev events.Event
		ev, err = events.ParseSingle(events.Kind(f.Cmd), f.Payload)
		evs = []events.Event{ev}
	}
	if err != nil {
		d.fail(fmt.Errorf("decode event: %w", err))
		return
	}

	for _, ev := range evs {
		d.metrics.RecordEvent()
		if ev.Kind == events.Kind(protocol.EventVMStart) {
			select {
			case d.vmStartCh <- ev:
			default:
			}
		}
	}
	events.Dispatch(d.cfg.Subscriber, evs)
}

// runInitialSetup waits for the debuggee's VM_START event, then
// negotiates the protocol version and subscribes to ASSEMBLY_LOAD,
// before signaling Open that the session is Ready. Runs in its own
// goroutine, started once the handshake is echoed; its failures reach
// Open via d.ready and tear the session down via d.fail.
func (d *Debugger) runInitialSetup() {
	select {
	case <-d.vmStartCh:
	case <-d.egCtx.Done():
		return
	}

	versionReply, err := d.rawCall("initial-setup:version", protocol.CmdSetVM, byte(protocol.CmdVMVersion), nil)
	if err != nil {
		d.fail(err) // no-op if rawCall already failed the session
		return
	}
	r := protocol.NewReader(versionReply)
	if _, err := r.String(); err != nil {
		d.fail(fmt.Errorf("initial-setup: read version description: %w", err))
		return
	}
	vmMajor, err := r.U32()
	if err != nil {
		d.fail(fmt.Errorf("initial-setup: read major version: %w", err))
		return
	}
	vmMinor, err := r.U32()
	if err != nil {
		d.fail(fmt.Errorf("initial-setup: read minor version: %w", err))
		return
	}
	if vmMajor < protocol.MajorVersion || (vmMajor == protocol.MajorVersion && vmMinor < protocol.MinorVersion) {
		d.fail(fmt.Errorf("initial-setup: debuggee protocol %d.%d is older than required %d.%d",
			vmMajor, vmMinor, protocol.MajorVersion, protocol.MinorVersion))
		return
	}

	setVersion := protocol.NewWriter()
	setVersion.PutU32(protocol.MajorVersion)
	setVersion.PutU32(protocol.MinorVersion)
	if _, err := d.rawCall("initial-setup:set-protocol-version", protocol.CmdSetVM, byte(protocol.CmdVMSetProtocolVersion), setVersion.Bytes()); err != nil {
		d.fail(err)
		return
	}

	sub := protocol.NewWriter()
	sub.PutU8(byte(protocol.EventAssemblyLoad))
	sub.PutU8(byte(protocol.SuspendPolicyNone))
	sub.PutU8(0) // modifier count
	if _, err := d.rawCall("initial-setup:subscribe-assembly-load", protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestSet), sub.Bytes()); err != nil {
		d.fail(err)
		return
	}

	d.mu.Lock()
	d.state = stateReady
	d.mu.Unlock()

	select {
	case d.ready <- nil:
	default:
	}
}

// fail transitions the session to the terminal ProtocolError state
// exactly once: every pending transaction resolves with
// ErrDisconnected, the subscriber's OnError fires once, and any
// in-flight Open is unblocked.
func (d *Debugger) fail(cause error) {
	if cause == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.state = stateProtocolError
		d.mu.Unlock()

		d.metrics.RecordProtocolError()
		d.table.Close(fmt.Errorf("%w: %v", ErrDisconnected, cause))
		d.cancel()
		d.conn.Close()

		select {
		case d.ready <- &ProtocolError{Op: "session", Inner: cause}:
		default:
		}

		if d.cfg.Subscriber != nil {
			d.cfg.Subscriber.OnError(&ProtocolError{Op: "session", Inner: cause})
		}
	})
}

// Close tears the session down: best-effort VM exit, then closes the
// connection and fails all pending transactions. Safe to call more
// than once.
func (d *Debugger) Close() error {
	d.mu.Lock()
	alreadyClosed := d.state == stateClosed
	if d.state == stateReady {
		d.mu.Unlock()
		_, _ = d.call("Close", protocol.CmdSetVM, byte(protocol.CmdVMExit), writeU32Payload(0))
		d.mu.Lock()
	}
	d.state = stateClosed
	d.mu.Unlock()

	if alreadyClosed {
		return nil
	}

	d.fail(errors.New("session closed by caller"))
	if d.eg != nil {
		_ = d.eg.Wait()
	}
	return nil
}
