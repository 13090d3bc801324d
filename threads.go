package monodbg

import (
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// StackFrame is one frame of a thread's call stack, top first.
type StackFrame struct {
	ID       uint32
	MethodID uint32
	ILOffset uint32
	Flags    byte
}

// AllThreads returns every managed thread id, in wire order.
func (d *Debugger) AllThreads() ([]uint32, error) {
	reply, err := d.call("AllThreads", protocol.CmdSetVM, byte(protocol.CmdVMAllThreads), nil)
	if err != nil {
		return nil, err
	}
	return decodeU32List(reply)
}

// GetThreadName returns the thread's managed name.
func (d *Debugger) GetThreadName(threadID uint32) (string, error) {
	reply, err := d.call("GetThreadName", protocol.CmdSetThread, byte(protocol.CmdThreadGetName), writeU32Payload(threadID))
	if err != nil {
		return "", err
	}
	r := protocol.NewReader(reply)
	return r.String()
}

// GetThreadState decodes the debuggee's thread-state bitmask into one
// priority-ordered ThreadState, matching the original's check order:
// Unstarted, then Aborted, then Stopped, then Suspended, else Running.
func (d *Debugger) GetThreadState(threadID uint32) (protocol.ThreadState, error) {
	reply, err := d.call("GetThreadState", protocol.CmdSetThread, byte(protocol.CmdThreadGetState), writeU32Payload(threadID))
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	raw, err := r.U32()
	if err != nil {
		return 0, err
	}
	mask := protocol.ThreadState(raw)

	switch {
	case mask&protocol.ThreadStateUnstarted != 0:
		return protocol.ThreadStateUnstarted, nil
	case mask&protocol.ThreadStateAborted != 0:
		return protocol.ThreadStateAborted, nil
	case mask&protocol.ThreadStateStopped != 0:
		return protocol.ThreadStateStopped, nil
	case mask&protocol.ThreadStateSuspended != 0:
		return protocol.ThreadStateSuspended, nil
	default:
		return protocol.ThreadStateRunning, nil
	}
}

// GetStack returns threadID's call stack, top frame first. length=-1
// requests all frames from start onward.
func (d *Debugger) GetStack(threadID uint32, start, length int32) ([]StackFrame, error) {
	w := protocol.NewWriter()
	w.PutU32(threadID)
	w.PutI32(start)
	w.PutI32(length)
	reply, err := d.call("GetStack", protocol.CmdSetThread, byte(protocol.CmdThreadGetFrameInfo), w.Bytes())
	if err != nil {
		return nil, err
	}

	r := protocol.NewReader(reply)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	frames := make([]StackFrame, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("stack frame %d/%d: frame id: %w", i+1, count, err)
		}
		methodID, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("stack frame %d/%d: method id: %w", i+1, count, err)
		}
		ilOffset, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("stack frame %d/%d: il offset: %w", i+1, count, err)
		}
		flags, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("stack frame %d/%d: flags: %w", i+1, count, err)
		}
		frames = append(frames, StackFrame{ID: id, MethodID: methodID, ILOffset: ilOffset, Flags: flags})
	}
	return frames, nil
}
