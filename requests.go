package monodbg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/go-monodbg/monodbg/internal/protocol"
	"github.com/go-monodbg/monodbg/internal/transport"
)

// buildFrame assembles a complete request frame: header plus payload.
// Frame layout mirrors internal/transport.Framer's command-header parsing:
// length(4) id(4) flags(1)=0x00 cmd_set(1) cmd(1), payload.
func buildFrame(id uint32, cmdSet protocol.CommandSet, cmd byte, payload []byte) []byte {
	total := protocol.HeaderLength + len(payload)
	buf := make([]byte, protocol.HeaderLength, total)
	binary.BigEndian.PutUint32(buf[0:4], uint32(total))
	binary.BigEndian.PutUint32(buf[4:8], id)
	buf[8] = 0x00
	buf[9] = byte(cmdSet)
	buf[10] = cmd
	return append(buf, payload...)
}

// call issues a synchronous request, refusing if the session is not
// in the Ready state. Use rawCall directly only for the handful of
// requests that are part of bringing the session to Ready.
func (d *Debugger) call(op string, cmdSet protocol.CommandSet, cmd byte, payload []byte) ([]byte, error) {
	if !d.IsOpen() {
		return nil, fmt.Errorf("monodbg: %s: %w", op, ErrNotConnected)
	}
	return d.rawCall(op, cmdSet, cmd, payload)
}

// rawCall sends one request and blocks for its reply. A reply timeout
// is protocol-fatal and tears the session down; a non-zero reply error
// code is returned as a *RemoteError without affecting session state.
func (d *Debugger) rawCall(op string, cmdSet protocol.CommandSet, cmd byte, payload []byte) ([]byte, error) {
	id := d.table.NextID()
	ch, err := d.table.Register(id)
	if err != nil {
		return nil, fmt.Errorf("monodbg: %s: %w", op, ErrDisconnected)
	}

	frame := buildFrame(id, cmdSet, cmd, payload)

	d.sendMu.Lock()
	_, werr := d.conn.Write(frame)
	d.sendMu.Unlock()
	if werr != nil {
		d.table.Unregister(id)
		wrapped := fmt.Errorf("monodbg: %s: write: %w", op, werr)
		d.fail(wrapped)
		return nil, wrapped
	}
	d.metrics.RecordRequest()

	start := time.Now()
	reply, waitErr := d.table.Wait(id, ch, d.cfg.RequestTimeout)
	if waitErr != nil {
		if errors.Is(waitErr, transport.ErrTimeout) {
			waitErr = fmt.Errorf("%w: %w", ErrTimeout, waitErr)
		}
		perr := &ProtocolError{Op: op, Inner: waitErr}
		d.fail(perr)
		return nil, perr
	}
	d.metrics.RecordReply(time.Since(start))

	if reply.Code != protocol.ErrNone {
		d.metrics.RecordRemoteError()
		return nil, NewRemoteError(op, reply.Code)
	}
	return reply.Payload, nil
}

// writeU32Payload is a small convenience for the many requests whose
// entire payload is a single big-endian uint32.
func writeU32Payload(v uint32) []byte {
	w := protocol.NewWriter()
	w.PutU32(v)
	return w.Bytes()
}
