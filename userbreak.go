package monodbg

import "github.com/go-monodbg/monodbg/internal/protocol"

// EnableUserBreak subscribes to USER_BREAK events with suspend_policy
// ALL, so a debuggee-side Debugger.Break() call stops every thread.
func (d *Debugger) EnableUserBreak() error {
	w := protocol.NewWriter()
	w.PutU8(byte(protocol.EventUserBreak))
	w.PutU8(byte(protocol.SuspendPolicyAll))
	w.PutU8(0) // modifier count
	_, err := d.call("EnableUserBreak", protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestSet), w.Bytes())
	return err
}

// CallUserBreak is deliberately non-functional. The original resolves
// the "Debugger.Break" method id into d_breakMeth along a code path
// that is compiled out, so the field is always zero and the call
// always fails before a packet is ever sent. monodbg preserves that
// behavior rather than inventing a resolution strategy the original
// never had.
func (d *Debugger) CallUserBreak() error {
	return ErrUserBreakUnavailable
}
