package monodbg

import (
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// TypeInfo is a type's identity as reported by CMD_SET_TYPE.
type TypeInfo struct {
	Namespace  string
	Name       string
	AssemblyID uint32
	ModuleID   uint32
}

// FieldInfo is one field of a type, as reported by CMD_TYPE_GET_FIELDS.
type FieldInfo struct {
	ID     uint32
	Name   string
	TypeID uint32
	Flags  uint32
}

func (f FieldInfo) isStatic() bool { return f.Flags&protocol.FieldAttributeStatic != 0 }

// GetTypeInfo returns typeID's identity, served from cache after the
// first fetch.
func (d *Debugger) GetTypeInfo(typeID uint32) (*TypeInfo, error) {
	if cached, ok := d.cache.GetType(typeID); ok {
		return cached.(*TypeInfo), nil
	}

	reply, err := d.call("GetTypeInfo", protocol.CmdSetType, byte(protocol.CmdTypeGetInfo), writeU32Payload(typeID))
	if err != nil {
		return nil, err
	}
	r := protocol.NewReader(reply)
	namespace, err := r.String()
	if err != nil {
		return nil, err
	}
	name, err := r.String()
	if err != nil {
		return nil, err
	}
	assemblyID, err := r.U32()
	if err != nil {
		return nil, err
	}
	moduleID, err := r.U32()
	if err != nil {
		return nil, err
	}

	info := &TypeInfo{Namespace: namespace, Name: name, AssemblyID: assemblyID, ModuleID: moduleID}
	d.cache.PutType(typeID, info)
	return info, nil
}

// GetTypeObject returns the live System.Type object id for typeID.
func (d *Debugger) GetTypeObject(typeID uint32) (uint32, error) {
	reply, err := d.call("GetTypeObject", protocol.CmdSetType, byte(protocol.CmdTypeGetObject), writeU32Payload(typeID))
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	return r.U32()
}

// GetMethods returns every method id on typeID whose name matches name.
func (d *Debugger) GetMethods(typeID uint32, name string) ([]uint32, error) {
	w := protocol.NewWriter()
	w.PutU32(typeID)
	w.PutString(name)
	reply, err := d.call("GetMethods", protocol.CmdSetType, byte(protocol.CmdTypeGetMethods), w.Bytes())
	if err != nil {
		return nil, err
	}
	return decodeU32List(reply)
}

// GetObjectType returns the runtime type id of objectID.
func (d *Debugger) GetObjectType(objectID uint32) (uint32, error) {
	reply, err := d.call("GetObjectType", protocol.CmdSetObjectRef, byte(protocol.CmdObjectGetType), writeU32Payload(objectID))
	if err != nil {
		return 0, err
	}
	r := protocol.NewReader(reply)
	return r.U32()
}

// GetFields returns typeID's fields, filtered by instanceLevel and
// classLevel (instance fields and/or static fields).
func (d *Debugger) GetFields(typeID uint32, instanceLevel, classLevel bool) ([]FieldInfo, error) {
	reply, err := d.call("GetFields", protocol.CmdSetType, byte(protocol.CmdTypeGetFields), writeU32Payload(typeID))
	if err != nil {
		return nil, err
	}

	r := protocol.NewReader(reply)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("field %d/%d: id: %w", i+1, count, err)
		}
		name, err := r.String()
		if err != nil {
			return nil, fmt.Errorf("field %d/%d: name: %w", i+1, count, err)
		}
		fieldTypeID, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("field %d/%d: type id: %w", i+1, count, err)
		}
		flags, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("field %d/%d: flags: %w", i+1, count, err)
		}
		f := FieldInfo{ID: id, Name: name, TypeID: fieldTypeID, Flags: flags}
		if (f.isStatic() && classLevel) || (!f.isStatic() && instanceLevel) {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// GetValues fetches the current value of each field in fieldIDs, read
// from objectOrTypeID. typeLevel selects CMD_SET_TYPE_GET_VALUES
// (static fields on a type id) over CMD_SET_OBJECT_GET_VALUES
// (instance fields on an object id).
func (d *Debugger) GetValues(objectOrTypeID uint32, fieldIDs []uint32, typeLevel bool) ([]Value, error) {
	w := protocol.NewWriter()
	w.PutU32(objectOrTypeID)
	w.PutU32(uint32(len(fieldIDs)))
	for _, id := range fieldIDs {
		w.PutU32(id)
	}

	cmdSet := protocol.CmdSetObjectRef
	cmd := byte(protocol.CmdObjectGetValues)
	if typeLevel {
		cmdSet = protocol.CmdSetType
		cmd = byte(protocol.CmdTypeGetValues)
	}

	reply, err := d.call("GetValues", cmdSet, cmd, w.Bytes())
	if err != nil {
		return nil, err
	}

	r := protocol.NewReader(reply)
	values := make([]Value, 0, len(fieldIDs))
	for i := range fieldIDs {
		v, err := r.DecodeValue()
		if err != nil {
			return nil, fmt.Errorf("field value %d/%d: %w", i+1, len(fieldIDs), err)
		}
		values = append(values, v)
	}
	return values, nil
}

// GetAssemblyName returns assemblyID's display name.
func (d *Debugger) GetAssemblyName(assemblyID uint32) ([]byte, error) {
	reply, err := d.call("GetAssemblyName", protocol.CmdSetAssembly, byte(protocol.CmdAssemblyGetName), writeU32Payload(assemblyID))
	if err != nil {
		return nil, err
	}
	r := protocol.NewReader(reply)
	return r.ByteString()
}
