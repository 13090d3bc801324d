// Package transport owns the byte-stream state machine that turns a
// raw net.Conn into delivered frames, and the transaction table that
// correlates outbound requests with their replies.
package transport

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/go-monodbg/monodbg/internal/logging"
	"github.com/go-monodbg/monodbg/internal/protocol"
)

// State is the framer's byte-stream state.
type State int

const (
	StateWaitHandshake State = iota
	StateWaitHeader
	StateWaitData
	StateProtocolError
)

func (s State) String() string {
	switch s {
	case StateWaitHandshake:
		return "wait-handshake"
	case StateWaitHeader:
		return "wait-header"
	case StateWaitData:
		return "wait-data"
	case StateProtocolError:
		return "protocol-error"
	default:
		return "unknown"
	}
}

// Frame is one fully-decoded packet, either a reply to an outstanding
// request (IsReply true, CmdSet/Cmd zero) or an inbound event
// packet (IsReply false).
type Frame struct {
	ID        uint32
	IsReply   bool
	ErrorCode protocol.ErrorCode
	CmdSet    protocol.CommandSet
	Cmd       byte
	Payload   []byte
}

// readDeadlineInterval bounds each blocking Read so a cancelled context
// or a closed connection is observed within one second, per the
// framer's promptness requirement.
const readDeadlineInterval = time.Second

// Framer reads protocol.HandshakeLiteral once, then an unbounded stream
// of length-prefixed frames, delivering each via onFrame. It owns no
// concurrency itself: Run blocks in the calling goroutine until the
// connection closes or a protocol violation occurs.
type Framer struct {
	conn   net.Conn
	logger *logging.Logger

	state         State
	buf           []byte
	pendingHeader header

	onHandshake func() error
	onFrame     func(Frame)
}

// New constructs a Framer over conn. onHandshake is invoked once the
// handshake literal has been read and may return an error to abort
// before any frames are processed (e.g. to reject a mismatched
// protocol). onFrame is invoked synchronously for every fully decoded
// frame, in wire order.
func New(conn net.Conn, logger *logging.Logger, onHandshake func() error, onFrame func(Frame)) *Framer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Framer{
		conn:        conn,
		logger:      logger,
		state:       StateWaitHandshake,
		onHandshake: onHandshake,
		onFrame:     onFrame,
	}
}

// Run reads from the connection until it errors, closes, or a protocol
// violation is detected, returning a *monodbg.ProtocolError-shaped
// cause (callers in the root package wrap it). A context cancellation
// is observed within readDeadlineInterval because each Read is bounded
// by a deadline that is re-armed every iteration.
func (f *Framer) Run(done <-chan struct{}) error {
	readBuf := make([]byte, 64*1024)
	for {
		select {
		case <-done:
			return nil
		default:
		}

		if err := f.conn.SetReadDeadline(time.Now().Add(readDeadlineInterval)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		n, err := f.conn.Read(readBuf)
		if n > 0 {
			f.buf = append(f.buf, readBuf[:n]...)
			if stepErr := f.drain(); stepErr != nil {
				f.state = StateProtocolError
				return stepErr
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
	}
}

// drain processes as many complete units (handshake literal, frame
// header, frame payload) as the buffer currently holds, leaving any
// trailing partial unit in f.buf for the next Read.
func (f *Framer) drain() error {
	for {
		switch f.state {
		case StateWaitHandshake:
			n := len(protocol.HandshakeLiteral)
			if len(f.buf) < n {
				return nil
			}
			got := string(f.buf[:n])
			f.buf = f.buf[n:]
			if got != protocol.HandshakeLiteral {
				return fmt.Errorf("unexpected handshake literal %q", got)
			}
			if f.onHandshake != nil {
				if err := f.onHandshake(); err != nil {
					return err
				}
			}
			f.state = StateWaitHeader

		case StateWaitHeader:
			if len(f.buf) < protocol.HeaderLength {
				return nil
			}
			f.pendingHeader = parseHeader(f.buf[:protocol.HeaderLength])
			f.buf = f.buf[protocol.HeaderLength:]
			f.state = StateWaitData

		case StateWaitData:
			need := int(f.pendingHeader.length) - protocol.HeaderLength
			if need < 0 {
				return fmt.Errorf("frame length %d shorter than header", f.pendingHeader.length)
			}
			if len(f.buf) < need {
				return nil
			}
			payload := make([]byte, need)
			copy(payload, f.buf[:need])
			f.buf = f.buf[need:]
			f.state = StateWaitHeader

			h := f.pendingHeader
			frame := Frame{ID: h.id, Payload: payload}
			if h.flags&protocol.FlagReply != 0 {
				if h.errHiLo > 0xff {
					return fmt.Errorf("reply id %d: invalid error code %d", h.id, h.errHiLo)
				}
				frame.IsReply = true
				frame.ErrorCode = protocol.ErrorCode(h.errHiLo)
			} else {
				frame.CmdSet = protocol.CommandSet(h.cmdSet)
				frame.Cmd = h.cmd
			}
			if f.onFrame != nil {
				f.onFrame(frame)
			}

		case StateProtocolError:
			return fmt.Errorf("framer in protocol-error state")
		}
	}
}

type header struct {
	length  uint32
	id      uint32
	flags   byte
	cmdSet  byte
	cmd     byte
	errHiLo uint16
}

// parseHeader decodes an 11-byte frame header: length(4) id(4) flags(1)
// then either command_set(1) command(1), or, when FlagReply is set in
// flags, a big-endian error code(2) in that same span.
func parseHeader(b []byte) header {
	h := header{
		length: binary.BigEndian.Uint32(b[0:4]),
		id:     binary.BigEndian.Uint32(b[4:8]),
		flags:  b[8],
	}
	if h.flags&protocol.FlagReply != 0 {
		h.errHiLo = binary.BigEndian.Uint16(b[9:11])
	} else {
		h.cmdSet = b[9]
		h.cmd = b[10]
	}
	return h
}
