package monodbg

import "github.com/go-monodbg/monodbg/internal/protocol"

// Value is the decoded form of one tagged value read from a
// locals/params/fields/array-element reply. See the concrete V* types
// for the closed set of cases.
type Value = protocol.Value

type (
	VVoid        = protocol.VVoid
	VBool        = protocol.VBool
	VChar        = protocol.VChar
	VI1          = protocol.VI1
	VU1          = protocol.VU1
	VI2          = protocol.VI2
	VU2          = protocol.VU2
	VI4          = protocol.VI4
	VU4          = protocol.VU4
	VI8          = protocol.VI8
	VU8          = protocol.VU8
	VF32         = protocol.VF32
	VF64         = protocol.VF64
	VIntPtr      = protocol.VIntPtr
	VNull        = protocol.VNull
	VString      = protocol.VString
	VObjectRef   = protocol.VObjectRef
	VValueType   = protocol.VValueType
	VParentVType = protocol.VParentVType
	VType        = protocol.VType
)
