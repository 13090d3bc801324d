package monodbg

import "github.com/go-monodbg/monodbg/internal/protocol"

// StepMode is the debuggee's current stepping mode. The invariant
// mode != StepModeFreeRun <=> an active step request id is held is
// maintained by every method on Debugger that touches stepMode.
type StepMode uint8

const (
	StepModeFreeRun StepMode = iota
	StepModeIn
	StepModeOver
	StepModeOut
)

func (m StepMode) depth() protocol.StepDepth {
	switch m {
	case StepModeIn:
		return protocol.StepDepthInto
	case StepModeOver:
		return protocol.StepDepthOver
	case StepModeOut:
		return protocol.StepDepthOut
	default:
		return protocol.StepDepthInto
	}
}

// StepIn advances thread by one IL instruction or source line,
// stepping into calls.
func (d *Debugger) StepIn(threadID uint32, byLine bool) error {
	return d.step(threadID, StepModeIn, byLine)
}

// StepOver advances thread without descending into calls.
func (d *Debugger) StepOver(threadID uint32, byLine bool) error {
	return d.step(threadID, StepModeOver, byLine)
}

// StepOut runs thread until it returns from its current method.
func (d *Debugger) StepOut(threadID uint32, byLine bool) error {
	return d.step(threadID, StepModeOut, byLine)
}

// step implements the shared step protocol: if the requested mode is
// already active, this is just a resume; otherwise any active step
// request is cleared, a new STEP event request is installed, and the
// VM is resumed.
func (d *Debugger) step(threadID uint32, mode StepMode, byLine bool) error {
	d.mu.Lock()
	current := d.stepMode
	d.mu.Unlock()

	if current == mode {
		_, err := d.call("Step", protocol.CmdSetVM, byte(protocol.CmdVMResume), nil)
		return err
	}

	if current != StepModeFreeRun {
		if err := d.clearStep(); err != nil {
			return err
		}
	}

	size := protocol.StepSizeMin
	if byLine {
		size = protocol.StepSizeLine
	}

	w := protocol.NewWriter()
	w.PutU8(byte(protocol.EventStep))
	w.PutU8(byte(protocol.SuspendPolicyAll))
	w.PutU8(1) // modifier count
	w.PutU8(byte(protocol.ModStep))
	w.PutU32(threadID)
	w.PutU32(uint32(size))
	w.PutU32(uint32(mode.depth()))
	w.PutU32(0) // filter

	reply, err := d.call("Step", protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestSet), w.Bytes())
	if err != nil {
		return err
	}
	r := protocol.NewReader(reply)
	requestID, err := r.U32()
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.stepMode = mode
	d.activeStepRequestID = requestID
	d.mu.Unlock()

	_, err = d.call("Step", protocol.CmdSetVM, byte(protocol.CmdVMResume), nil)
	return err
}

// ClearStep cancels any active step request and returns the debuggee
// to FreeRun mode, without resuming it.
func (d *Debugger) ClearStep() error {
	return d.clearStep()
}

func (d *Debugger) clearStep() error {
	d.mu.Lock()
	requestID := d.activeStepRequestID
	d.mu.Unlock()
	if requestID == 0 {
		return nil
	}

	w := protocol.NewWriter()
	w.PutU8(byte(protocol.EventStep))
	w.PutU32(requestID)
	_, err := d.call("ClearStep", protocol.CmdSetEventRequest, byte(protocol.CmdEventRequestClear), w.Bytes())
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.stepMode = StepModeFreeRun
	d.activeStepRequestID = 0
	d.mu.Unlock()
	return nil
}
