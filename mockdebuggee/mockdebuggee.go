// Package mockdebuggee is an in-process stand-in for a Mono debuggee:
// it dials a Debugger's listening port, performs the wire handshake,
// answers requests with scriptable canned replies, and can emit events
// on demand. It exists to drive facade tests without a real Mono
// runtime.
package mockdebuggee

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// Handler answers one inbound request, returning the reply payload and
// wire error code.
type Handler func(payload []byte) (reply []byte, code protocol.ErrorCode)

// Debuggee is the client side of the wire protocol's accepted
// connection: it behaves the way a real debuggee does, as far as
// framing and the initial handshake go.
type Debuggee struct {
	conn net.Conn

	mu       sync.Mutex
	handlers map[uint16]Handler
	nextReqID uint32
}

func handlerKey(cmdSet protocol.CommandSet, cmd byte) uint16 {
	return uint16(cmdSet)<<8 | uint16(cmd)
}

// Dial connects to addr, completes the handshake (sends the literal,
// waits for the echo), and starts serving inbound requests with the
// default initial-setup handlers already installed. Callers add more
// with SetHandler before issuing facade calls that need them.
func Dial(addr string) (*Debuggee, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mockdebuggee: dial: %w", err)
	}

	if _, err := conn.Write([]byte(protocol.HandshakeLiteral)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mockdebuggee: send handshake: %w", err)
	}
	echo := make([]byte, len(protocol.HandshakeLiteral))
	if _, err := io.ReadFull(conn, echo); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mockdebuggee: read handshake echo: %w", err)
	}
	if string(echo) != protocol.HandshakeLiteral {
		conn.Close()
		return nil, fmt.Errorf("mockdebuggee: unexpected handshake echo %q", echo)
	}

	d := &Debuggee{
		conn:      conn,
		handlers:  make(map[uint16]Handler),
		nextReqID: 1,
	}
	d.installDefaultHandlers()
	go d.serve()
	return d, nil
}

// SetHandler installs (or replaces) the handler for one command. Tests
// use this to script a specific reply or error code.
func (d *Debuggee) SetHandler(cmdSet protocol.CommandSet, cmd byte, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[handlerKey(cmdSet, cmd)] = h
}

func (d *Debuggee) installDefaultHandlers() {
	d.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMVersion), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutString("mono 2.38.0 (mock)")
		w.PutU32(protocol.MajorVersion)
		w.PutU32(protocol.MinorVersion)
		return w.Bytes(), protocol.ErrNone
	})
	d.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMSetProtocolVersion), func([]byte) ([]byte, protocol.ErrorCode) {
		return nil, protocol.ErrNone
	})
	d.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMResume), func([]byte) ([]byte, protocol.ErrorCode) {
		return nil, protocol.ErrNone
	})
	d.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMSuspend), func([]byte) ([]byte, protocol.ErrorCode) {
		return nil, protocol.ErrNone
	})
	d.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMExit), func([]byte) ([]byte, protocol.ErrorCode) {
		return nil, protocol.ErrNone
	})
	d.SetHandler(protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestSet), func([]byte) ([]byte, protocol.ErrorCode) {
		d.mu.Lock()
		id := d.nextReqID
		d.nextReqID++
		d.mu.Unlock()
		w := protocol.NewWriter()
		w.PutU32(id)
		return w.Bytes(), protocol.ErrNone
	})
	d.SetHandler(protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestClear), func([]byte) ([]byte, protocol.ErrorCode) {
		return nil, protocol.ErrNone
	})
	d.SetHandler(protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestClearAllBreakpoints), func([]byte) ([]byte, protocol.ErrorCode) {
		return nil, protocol.ErrNone
	})
}

func (d *Debuggee) serve() {
	hdr := make([]byte, protocol.HeaderLength)
	for {
		if _, err := io.ReadFull(d.conn, hdr); err != nil {
			return
		}
		length := binary.BigEndian.Uint32(hdr[0:4])
		id := binary.BigEndian.Uint32(hdr[4:8])
		flags := hdr[8]

		bodyLen := int(length) - protocol.HeaderLength
		var payload []byte
		if bodyLen > 0 {
			payload = make([]byte, bodyLen)
			if _, err := io.ReadFull(d.conn, payload); err != nil {
				return
			}
		}
		if flags&protocol.FlagReply != 0 {
			continue // a debuggee never receives replies, only requests
		}
		cmdSet := protocol.CommandSet(hdr[9])
		cmd := hdr[10]

		d.mu.Lock()
		h, ok := d.handlers[handlerKey(cmdSet, cmd)]
		d.mu.Unlock()

		var reply []byte
		code := protocol.ErrNotImplemented
		if ok {
			reply, code = h(payload)
		}
		d.sendReply(id, code, reply)
	}
}

func (d *Debuggee) sendReply(id uint32, code protocol.ErrorCode, payload []byte) {
	total := protocol.HeaderLength + len(payload)
	buf := make([]byte, protocol.HeaderLength, total)
	binary.BigEndian.PutUint32(buf[0:4], uint32(total))
	binary.BigEndian.PutUint32(buf[4:8], id)
	buf[8] = protocol.FlagReply
	binary.BigEndian.PutUint16(buf[9:11], uint16(code))
	buf = append(buf, payload...)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.conn.Write(buf)
}

// SendEvent emits one top-level (non-composite) event frame.
func (d *Debuggee) SendEvent(kind protocol.EventKind, payload []byte) error {
	total := protocol.HeaderLength + len(payload)
	buf := make([]byte, protocol.HeaderLength, total)
	binary.BigEndian.PutUint32(buf[0:4], uint32(total))
	binary.BigEndian.PutUint32(buf[4:8], 0)
	buf[8] = 0x00
	buf[9] = byte(protocol.CmdSetEvent)
	buf[10] = byte(kind)
	buf = append(buf, payload...)

	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.conn.Write(buf)
	return err
}

// SendVMStart emits the VM_START event that unblocks a Debugger's
// initial setup sequence.
func (d *Debuggee) SendVMStart(threadID uint32) error {
	w := protocol.NewWriter()
	w.PutU32(threadID)
	return d.SendEvent(protocol.EventVMStart, w.Bytes())
}

// Close closes the connection to the debugger.
func (d *Debuggee) Close() error {
	return d.conn.Close()
}
