package monodbg

import (
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// Resume clears any active step request, then resumes every thread.
func (d *Debugger) Resume() error {
	d.mu.Lock()
	mode := d.stepMode
	d.mu.Unlock()
	if mode != StepModeFreeRun {
		if err := d.clearStep(); err != nil {
			return err
		}
	}
	_, err := d.call("Resume", protocol.CmdSetVM, byte(protocol.CmdVMResume), nil)
	return err
}

// Suspend freezes every thread.
func (d *Debugger) Suspend() error {
	_, err := d.call("Suspend", protocol.CmdSetVM, byte(protocol.CmdVMSuspend), nil)
	return err
}

// Exit requests that the debuggee terminate with the given exit code.
// The debuggee does not reply past teardown, so a ProtocolError from
// the ensuing disconnect is expected and not returned as a failure
// here.
func (d *Debugger) Exit(code uint32) error {
	_, err := d.call("Exit", protocol.CmdSetVM, byte(protocol.CmdVMExit), writeU32Payload(code))
	if err != nil {
		var perr *ProtocolError
		if asProtocolError(err, &perr) {
			return nil
		}
	}
	return err
}

func asProtocolError(err error, target **ProtocolError) bool {
	pe, ok := err.(*ProtocolError)
	if ok {
		*target = pe
	}
	return ok
}

// GetCoreLib returns the assembly id of domainID's
// mscorlib/System.Private.CoreLib.
func (d *Debugger) GetCoreLib(domainID uint32) (uint32, error) {
	reply, err := d.call("GetCoreLib", protocol.CmdSetAppDomain, byte(protocol.CmdAppDomainGetCorlib), writeU32Payload(domainID))
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	return r.U32()
}

// FindType returns every loaded type id whose name matches name. The
// underlying VM_GET_TYPES call may return zero or more than one match
// for an unqualified name; FindTypeInAssembly narrows to exactly one.
func (d *Debugger) FindType(name []byte) ([]uint32, error) {
	w := protocol.NewWriter()
	w.PutByteString(name)
	w.PutU32(0) // ignoreCase
	reply, err := d.call("FindType", protocol.CmdSetVM, byte(protocol.CmdVMGetTypes), w.Bytes())
	if err != nil {
		return nil, err
	}
	return decodeU32List(reply)
}

// FindTypeInAssembly resolves name within one assembly, returning a
// single type id.
func (d *Debugger) FindTypeInAssembly(name []byte, assemblyID uint32) (uint32, error) {
	w := protocol.NewWriter()
	w.PutU32(assemblyID)
	w.PutByteString(name)
	reply, err := d.call("FindTypeInAssembly", protocol.CmdSetAssembly, byte(protocol.CmdAssemblyGetType), w.Bytes())
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	return r.U32()
}

// GetTypesOfSourceFile returns every type id whose declaration
// includes the given source path.
func (d *Debugger) GetTypesOfSourceFile(path string) ([]uint32, error) {
	w := protocol.NewWriter()
	w.PutString(path)
	reply, err := d.call("GetTypesOfSourceFile", protocol.CmdSetVM, byte(protocol.CmdVMGetTypesForSource), w.Bytes())
	if err != nil {
		return nil, err
	}
	return decodeU32List(reply)
}

func decodeU32List(payload []byte) ([]uint32, error) {
	r := protocol.NewReader(payload)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("decode u32 list entry %d/%d: %w", i+1, count, err)
		}
		out = append(out, v)
	}
	return out, nil
}
