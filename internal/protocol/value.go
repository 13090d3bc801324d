package protocol

import "math"

func decodeFloat32Bits(bits uint32) float32 { return math.Float32frombits(bits) }
func decodeFloat64Bits(bits uint64) float64 { return math.Float64frombits(bits) }

// Value is the decoded form of a single tagged value as carried in
// locals/params/fields/array-element replies. It is a closed set of
// concrete types rather than one struct with optional fields, mirroring
// the distinct cases (void, primitive, object reference, inline value
// type, boxed parent value type) the wire format itself distinguishes.
type Value interface {
	isValue()
}

type VVoid struct{}

func (VVoid) isValue() {}

type VBool bool

func (VBool) isValue() {}

type VChar uint16

func (VChar) isValue() {}

type VI1 int8

func (VI1) isValue() {}

type VU1 uint8

func (VU1) isValue() {}

type VI2 int16

func (VI2) isValue() {}

type VU2 uint16

func (VU2) isValue() {}

type VI4 int32

func (VI4) isValue() {}

type VU4 uint32

func (VU4) isValue() {}

type VI8 int64

func (VI8) isValue() {}

type VU8 uint64

func (VU8) isValue() {}

type VF32 float32

func (VF32) isValue() {}

type VF64 float64

func (VF64) isValue() {}

// VIntPtr carries a native-sized integer (VT_I/VT_U/VT_PTR), decoded as
// a 64-bit value regardless of the debuggee's actual pointer width.
type VIntPtr int64

func (VIntPtr) isValue() {}

// VNull is the null-reference case (VALUE_TYPE_ID_NULL). The tag alone
// is the whole encoding; there is no class id on the wire.
type VNull struct{}

func (VNull) isValue() {}

// VString is a STRING_REF: the object id to pass to CMD_STRING_REF_GET_VALUE.
type VString struct{ ID uint32 }

func (VString) isValue() {}

// VObjectRef is an OBJECT/CLASS/ARRAY reference: Kind distinguishes
// VT_OBJECT and VT_CLASS from VT_SZARRAY/VT_ARRAY so callers know which
// facade call applies.
type VObjectRef struct {
	Kind byte
	ID   uint32
}

func (VObjectRef) isValue() {}

// VValueType is an inline (unboxed) struct value: ClassID plus the
// already-decoded field values in declaration order.
type VValueType struct {
	ClassID   uint32
	IsEnum    bool
	Fields    []Value
}

func (VValueType) isValue() {}

// VParentVType marks a value that is itself the "parent" of a nested
// struct field chain (VALUE_TYPE_ID_PARENT_VTYPE): callers see only the
// owning object id, the field path is reconstructed by the caller.
type VParentVType struct{ ID uint32 }

func (VParentVType) isValue() {}

// VType is a TYPE reference encoded inline (VT_TYPE / boxed type
// object), carrying the type id.
type VType struct{ TypeID uint32 }

func (VType) isValue() {}

// DecodeValue reads one tagged value from r, recursing for
// VT_VALUETYPE. Tags with no well-defined debugger-protocol encoding
// (byref, var/mvar, generic instantiation, typed-by-ref, function
// pointer, custom modifiers, internal, modifier/sentinel/pinned
// markers) are rejected rather than silently misparsed.
func (r *Reader) DecodeValue() (Value, error) {
	tag, err := r.U8()
	if err != nil {
		return nil, err
	}

	switch tag {
	case ValueTypeIDNull:
		return VNull{}, nil

	case ValueTypeIDType:
		typeID, err := r.U32()
		if err != nil {
			return nil, err
		}
		return VType{TypeID: typeID}, nil

	case ValueTypeIDParentVType:
		id, err := r.U32()
		if err != nil {
			return nil, err
		}
		return VParentVType{ID: id}, nil

	case VTVoid:
		return VVoid{}, nil

	case VTBoolean:
		v, err := r.U8()
		return VBool(v != 0), err

	case VTChar:
		v, err := r.U16()
		return VChar(v), err

	case VTI1:
		v, err := r.U8()
		return VI1(int8(v)), err

	case VTU1:
		v, err := r.U8()
		return VU1(v), err

	case VTI2:
		v, err := r.U16()
		return VI2(int16(v)), err

	case VTU2:
		v, err := r.U16()
		return VU2(v), err

	case VTI4:
		v, err := r.I32()
		return VI4(v), err

	case VTU4:
		v, err := r.U32()
		return VU4(v), err

	case VTI8:
		v, err := r.U64()
		return VI8(int64(v)), err

	case VTU8:
		v, err := r.U64()
		return VU8(v), err

	case VTR4:
		v, err := r.U32()
		return VF32(decodeFloat32Bits(v)), err

	case VTR8:
		v, err := r.U64()
		return VF64(decodeFloat64Bits(v)), err

	case VTI, VTU, VTPtr, VTFnPtr:
		if tag == VTFnPtr {
			return nil, unsupportedTagError(tag)
		}
		v, err := r.U64()
		return VIntPtr(int64(v)), err

	case VTString:
		id, err := r.U32()
		if err != nil {
			return nil, err
		}
		return VString{ID: id}, nil

	case VTObject, VTSZArray, VTArray, VTClass:
		id, err := r.U32()
		if err != nil {
			return nil, err
		}
		return VObjectRef{Kind: tag, ID: id}, nil

	case VTValueType:
		return r.decodeValueType()

	default:
		return nil, unsupportedTagError(tag)
	}
}

func (r *Reader) decodeValueType() (Value, error) {
	isEnumByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	classID, err := r.U32()
	if err != nil {
		return nil, err
	}
	numFields, err := r.U32()
	if err != nil {
		return nil, err
	}
	fields := make([]Value, 0, numFields)
	for i := uint32(0); i < numFields; i++ {
		v, err := r.DecodeValue()
		if err != nil {
			return nil, err
		}
		fields = append(fields, v)
	}
	return VValueType{ClassID: classID, IsEnum: isEnumByte != 0, Fields: fields}, nil
}
