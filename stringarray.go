package monodbg

import (
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// GetString returns the managed string value for stringID.
func (d *Debugger) GetString(stringID uint32) (string, error) {
	reply, err := d.call("GetString", protocol.CmdSetStringRef, byte(protocol.CmdStringGetValue), writeU32Payload(stringID))
	if err != nil {
		return "", err
	}
	r := protocol.NewReader(reply)
	return r.String()
}

// GetArrayLength returns arrayID's element count.
func (d *Debugger) GetArrayLength(arrayID uint32) (uint32, error) {
	reply, err := d.call("GetArrayLength", protocol.CmdSetArrayRef, byte(protocol.CmdArrayGetLength), writeU32Payload(arrayID))
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	return r.U32()
}

// GetArrayValues returns length elements of arrayID starting at index
// start.
func (d *Debugger) GetArrayValues(arrayID, start, length uint32) ([]Value, error) {
	w := protocol.NewWriter()
	w.PutU32(arrayID)
	w.PutU32(start)
	w.PutU32(length)

	reply, err := d.call("GetArrayValues", protocol.CmdSetArrayRef, byte(protocol.CmdArrayGetValues), w.Bytes())
	if err != nil {
		return nil, err
	}

	r := protocol.NewReader(reply)
	values := make([]Value, 0, length)
	for i := uint32(0); i < length; i++ {
		v, err := r.DecodeValue()
		if err != nil {
			return nil, fmt.Errorf("array value %d/%d: %w", i+1, length, err)
		}
		values = append(values, v)
	}
	return values, nil
}
