package monodbg

import (
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// GetFrameThis requests the `this` value for frameID on threadID.
// Callers only need this for non-static methods (see IsMethodStatic).
func (d *Debugger) GetFrameThis(threadID, frameID uint32) (Value, error) {
	w := protocol.NewWriter()
	w.PutU32(threadID)
	w.PutU32(frameID)
	reply, err := d.call("GetFrameThis", protocol.CmdSetStackFrame, byte(protocol.CmdStackFrameGetThis), w.Bytes())
	if err != nil {
		return nil, err
	}
	r := protocol.NewReader(reply)
	return r.DecodeValue()
}

// GetParamValues fetches paramCount parameter values for frameID. If
// hasThis is set (the method is non-static, per IsMethodStatic), the
// frame's `this` value is fetched first and prepended, unless it
// decodes as VNull.
func (d *Debugger) GetParamValues(threadID, frameID uint32, paramCount int, hasThis bool) ([]Value, error) {
	var thisVal Value
	if hasThis {
		v, err := d.GetFrameThis(threadID, frameID)
		if err != nil {
			return nil, err
		}
		if _, isNull := v.(VNull); !isNull {
			thisVal = v
		}
	}

	indexes := make([]int32, paramCount)
	for i := 0; i < paramCount; i++ {
		indexes[i] = int32(-i - 1)
	}
	values, err := d.getFrameValues(threadID, frameID, indexes)
	if err != nil {
		return nil, err
	}
	if thisVal != nil {
		return append([]Value{thisVal}, values...), nil
	}
	return values, nil
}

// GetLocalValues fetches localCount local-variable values for frameID.
func (d *Debugger) GetLocalValues(threadID, frameID uint32, localCount int) ([]Value, error) {
	indexes := make([]int32, localCount)
	for i := range indexes {
		indexes[i] = int32(i)
	}
	return d.getFrameValues(threadID, frameID, indexes)
}

func (d *Debugger) getFrameValues(threadID, frameID uint32, indexes []int32) ([]Value, error) {
	w := protocol.NewWriter()
	w.PutU32(threadID)
	w.PutU32(frameID)
	w.PutU32(uint32(len(indexes)))
	for _, idx := range indexes {
		w.PutI32(idx)
	}

	reply, err := d.call("GetFrameValues", protocol.CmdSetStackFrame, byte(protocol.CmdStackFrameGetValues), w.Bytes())
	if err != nil {
		return nil, err
	}

	r := protocol.NewReader(reply)
	values := make([]Value, 0, len(indexes))
	for i := range indexes {
		v, err := r.DecodeValue()
		if err != nil {
			return nil, fmt.Errorf("frame value %d/%d: %w", i+1, len(indexes), err)
		}
		values = append(values, v)
	}
	return values, nil
}
