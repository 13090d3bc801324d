package monodbg

import "github.com/go-monodbg/monodbg/internal/protocol"

// AddBreakpoint installs a breakpoint at methodID/ilOffset. Idempotent:
// a second call with the same key returns the existing request id
// without installing a duplicate remote event request.
func (d *Debugger) AddBreakpoint(methodID uint32, ilOffset uint64) (uint32, error) {
	key := bpKey{MethodID: methodID, ILOffset: ilOffset}

	d.mu.Lock()
	if existing, ok := d.breakpoints[key]; ok {
		d.mu.Unlock()
		return existing, nil
	}
	d.mu.Unlock()

	w := protocol.NewWriter()
	w.PutU8(byte(protocol.EventBreakpoint))
	w.PutU8(byte(protocol.SuspendPolicyAll))
	w.PutU8(1) // modifier count
	w.PutU8(byte(protocol.ModLocationOnly))
	w.PutU32(methodID)
	w.PutU64(ilOffset)

	reply, err := d.call("AddBreakpoint", protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestSet), w.Bytes())
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	requestID, err := r.U32()
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	d.breakpoints[key] = requestID
	d.mu.Unlock()
	return requestID, nil
}

// RemoveBreakpoint clears the breakpoint at methodID/ilOffset. A no-op
// that returns success if no such breakpoint exists.
func (d *Debugger) RemoveBreakpoint(methodID uint32, ilOffset uint64) error {
	key := bpKey{MethodID: methodID, ILOffset: ilOffset}

	d.mu.Lock()
	requestID, ok := d.breakpoints[key]
	if ok {
		delete(d.breakpoints, key)
	}
	d.mu.Unlock()
	if !ok {
		return nil
	}

	w := protocol.NewWriter()
	w.PutU8(byte(protocol.EventBreakpoint))
	w.PutU32(requestID)
	_, err := d.call("RemoveBreakpoint", protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestClear), w.Bytes())
	return err
}

// ClearAllBreakpoints wipes every breakpoint, server-side and in the
// local registry.
func (d *Debugger) ClearAllBreakpoints() error {
	_, err := d.call("ClearAllBreakpoints", protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestClearAllBreakpoints), nil)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.breakpoints = make(map[bpKey]uint32)
	d.mu.Unlock()
	return nil
}
