package monodbg

import (
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// DebugLine is one entry of a method's IL-offset-to-source-line table.
type DebugLine struct {
	ILOffset uint32
	Row      uint32
	Col      int16
	Valid    bool
}

// MethodDebugInfo is a method's line-number table, in ascending
// IL-offset order.
type MethodDebugInfo struct {
	CodeSize   uint32
	SourceFile string
	Lines      []DebugLine
}

// Find returns the first line entry whose IL offset is at or after
// ilOffset. This is deliberately the "first entry with iloff >= query"
// rule rather than the more common greatest-predecessor lookup: it
// matches how the original debugger walks this table, and callers
// should not assume Find(x) returns the line containing x.
func (m *MethodDebugInfo) Find(ilOffset uint32) (DebugLine, bool) {
	for _, line := range m.Lines {
		if line.ILOffset >= ilOffset {
			return line, true
		}
	}
	return DebugLine{}, false
}

// FindLine returns the IL offset of the first line entry at or after
// source row/col, or 0 if none match.
func (m *MethodDebugInfo) FindLine(row uint32, col int16) uint32 {
	for _, line := range m.Lines {
		if line.Row > row || (line.Row == row && line.Col >= col) {
			return line.ILOffset
		}
	}
	return 0
}

// GetMethodDebugInfo returns methodID's line table, served from cache
// after the first fetch (a method's debug info never changes for the
// life of a session).
func (d *Debugger) GetMethodDebugInfo(methodID uint32) (*MethodDebugInfo, error) {
	if cached, ok := d.cache.GetMethod(methodID); ok {
		return cached.(*MethodDebugInfo), nil
	}

	reply, err := d.call("GetMethodDebugInfo", protocol.CmdSetMethod, byte(protocol.CmdMethodGetDebugInfo), writeU32Payload(methodID))
	if err != nil {
		return nil, err
	}

	r := protocol.NewReader(reply)
	codeSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	sourceFile, err := r.String()
	if err != nil {
		return nil, err
	}
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	lines := make([]DebugLine, 0, count)
	for i := uint32(0); i < count; i++ {
		ilOffset, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("debug line %d/%d: il offset: %w", i+1, count, err)
		}
		row, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("debug line %d/%d: row: %w", i+1, count, err)
		}
		col, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("debug line %d/%d: col: %w", i+1, count, err)
		}
		validByte, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("debug line %d/%d: valid: %w", i+1, count, err)
		}
		lines = append(lines, DebugLine{ILOffset: ilOffset, Row: row, Col: int16(col), Valid: validByte != 0})
	}

	info := &MethodDebugInfo{CodeSize: codeSize, SourceFile: sourceFile, Lines: lines}
	d.cache.PutMethod(methodID, info)
	return info, nil
}

// GetMethodName returns methodID's declared name.
func (d *Debugger) GetMethodName(methodID uint32) (string, error) {
	reply, err := d.call("GetMethodName", protocol.CmdSetMethod, byte(protocol.CmdMethodGetName), writeU32Payload(methodID))
	if err != nil {
		return "", err
	}
	r := protocol.NewReader(reply)
	return r.String()
}

// GetMethodOwner returns the type id that declares methodID.
func (d *Debugger) GetMethodOwner(methodID uint32) (uint32, error) {
	reply, err := d.call("GetMethodOwner", protocol.CmdSetMethod, byte(protocol.CmdMethodGetDeclaringType), writeU32Payload(methodID))
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	return r.U32()
}

// GetMethodBody returns methodID's raw IL byte stream.
func (d *Debugger) GetMethodBody(methodID uint32) ([]byte, error) {
	reply, err := d.call("GetMethodBody", protocol.CmdSetMethod, byte(protocol.CmdMethodGetBody), writeU32Payload(methodID))
	if err != nil {
		return nil, err
	}
	r := protocol.NewReader(reply)
	return r.ByteString()
}

// methodFlags is the decoded reply of CMD_METHOD_GET_INFO: the
// method's attribute flags, impl flags, and metadata token.
type methodFlags struct {
	Flags     uint32
	ImplFlags uint32
	Token     uint32
}

func (d *Debugger) getMethodFlags(methodID uint32) (methodFlags, error) {
	reply, err := d.call("GetMethodFlags", protocol.CmdSetMethod, byte(protocol.CmdMethodGetInfo), writeU32Payload(methodID))
	if err != nil {
		return methodFlags{}, err
	}
	r := protocol.NewReader(reply)
	flags, err := r.U32()
	if err != nil {
		return methodFlags{}, err
	}
	implFlags, err := r.U32()
	if err != nil {
		return methodFlags{}, err
	}
	token, err := r.U32()
	if err != nil {
		return methodFlags{}, err
	}
	return methodFlags{Flags: flags, ImplFlags: implFlags, Token: token}, nil
}

// GetMethodFlags returns methodID's raw CorMethodAttr flags.
func (d *Debugger) GetMethodFlags(methodID uint32) (uint32, error) {
	mf, err := d.getMethodFlags(methodID)
	return mf.Flags, err
}

// IsMethodStatic reports whether methodID is a static method. Callers
// use this before fetching frame.this (GetFrameThis): only non-static
// frames have one.
func (d *Debugger) IsMethodStatic(methodID uint32) (bool, error) {
	mf, err := d.getMethodFlags(methodID)
	if err != nil {
		return false, err
	}
	return mf.Flags&protocol.MethodAttributeStatic != 0, nil
}

// MethodKind classifies how a method is implemented.
type MethodKind int

const (
	MethodKindIL MethodKind = iota
	MethodKindNative
	MethodKindRuntime
)

// GetMethodKind reports whether methodID is IL, native, or
// runtime-implemented.
func (d *Debugger) GetMethodKind(methodID uint32) (MethodKind, error) {
	mf, err := d.getMethodFlags(methodID)
	if err != nil {
		return MethodKindIL, err
	}
	switch mf.ImplFlags & protocol.MethodImplAttributeCodeTypeMask {
	case protocol.MethodImplAttributeNative:
		return MethodKindNative, nil
	case protocol.MethodImplAttributeRuntime:
		return MethodKindRuntime, nil
	default:
		return MethodKindIL, nil
	}
}

func (d *Debugger) getParamInfo(methodID uint32) (count uint32, names []string, err error) {
	reply, err := d.call("GetParamInfo", protocol.CmdSetMethod, byte(protocol.CmdMethodGetParamInfo), writeU32Payload(methodID))
	if err != nil {
		return 0, nil, err
	}
	r := protocol.NewReader(reply)
	count, err = r.U32()
	if err != nil {
		return 0, nil, err
	}
	names = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.String()
		if err != nil {
			return 0, nil, fmt.Errorf("param name %d/%d: %w", i+1, count, err)
		}
		names = append(names, name)
	}
	return count, names, nil
}

// GetParamCount returns methodID's parameter count.
func (d *Debugger) GetParamCount(methodID uint32) (uint32, error) {
	count, _, err := d.getParamInfo(methodID)
	return count, err
}

// GetParamNames returns methodID's parameter names, in declaration order.
func (d *Debugger) GetParamNames(methodID uint32) ([]string, error) {
	_, names, err := d.getParamInfo(methodID)
	return names, err
}

func (d *Debugger) getLocalsInfo(methodID uint32) (count uint32, names []string, err error) {
	reply, err := d.call("GetLocalsInfo", protocol.CmdSetMethod, byte(protocol.CmdMethodGetLocalsInfo), writeU32Payload(methodID))
	if err != nil {
		return 0, nil, err
	}
	r := protocol.NewReader(reply)
	count, err = r.U32()
	if err != nil {
		return 0, nil, err
	}
	names = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.String()
		if err != nil {
			return 0, nil, fmt.Errorf("local name %d/%d: %w", i+1, count, err)
		}
		names = append(names, name)
	}
	return count, names, nil
}

// GetLocalsCount returns methodID's local-variable count.
func (d *Debugger) GetLocalsCount(methodID uint32) (uint32, error) {
	count, _, err := d.getLocalsInfo(methodID)
	return count, err
}

// GetLocalNames returns methodID's local-variable names, in slot order.
func (d *Debugger) GetLocalNames(methodID uint32) ([]string, error) {
	_, names, err := d.getLocalsInfo(methodID)
	return names, err
}
