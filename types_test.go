package monodbg

import (
	"testing"

	"github.com/go-monodbg/monodbg/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTypeInfoIsCached(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	calls := 0
	mock.SetHandler(protocol.CmdSetType, byte(protocol.CmdTypeGetInfo), func([]byte) ([]byte, protocol.ErrorCode) {
		calls++
		w := protocol.NewWriter()
		w.PutString("System")
		w.PutString("String")
		w.PutU32(1)
		w.PutU32(2)
		return w.Bytes(), protocol.ErrNone
	})

	info1, err := d.GetTypeInfo(5)
	require.NoError(t, err)
	info2, err := d.GetTypeInfo(5)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "a second GetTypeInfo for the same id must be served from cache")
	assert.Same(t, info1, info2)
	assert.Equal(t, "System", info1.Namespace)
	assert.Equal(t, "String", info1.Name)
}

func TestGetObjectType(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetObjectRef, byte(protocol.CmdObjectGetType), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(11)
		return w.Bytes(), protocol.ErrNone
	})

	typeID, err := d.GetObjectType(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(11), typeID)
}

func TestGetFieldsFiltersByStaticness(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetType, byte(protocol.CmdTypeGetFields), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(2)
		w.PutU32(1)
		w.PutString("instanceField")
		w.PutU32(100)
		w.PutU32(0)
		w.PutU32(2)
		w.PutString("staticField")
		w.PutU32(100)
		w.PutU32(protocol.FieldAttributeStatic)
		return w.Bytes(), protocol.ErrNone
	})

	instanceOnly, err := d.GetFields(5, true, false)
	require.NoError(t, err)
	require.Len(t, instanceOnly, 1)
	assert.Equal(t, "instanceField", instanceOnly[0].Name)

	staticOnly, err := d.GetFields(5, false, true)
	require.NoError(t, err)
	require.Len(t, staticOnly, 1)
	assert.Equal(t, "staticField", staticOnly[0].Name)
}

func TestGetValuesSwitchesCommandSetByLevel(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetObjectRef, byte(protocol.CmdObjectGetValues), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		writeVI4(w, 1)
		return w.Bytes(), protocol.ErrNone
	})
	mock.SetHandler(protocol.CmdSetType, byte(protocol.CmdTypeGetValues), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		writeVI4(w, 2)
		return w.Bytes(), protocol.ErrNone
	})

	instanceVals, err := d.GetValues(1, []uint32{10}, false)
	require.NoError(t, err)
	assert.Equal(t, []Value{VI4(1)}, instanceVals)

	staticVals, err := d.GetValues(1, []uint32{10}, true)
	require.NoError(t, err)
	assert.Equal(t, []Value{VI4(2)}, staticVals)
}

func TestGetAssemblyName(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetAssembly, byte(protocol.CmdAssemblyGetName), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutByteString([]byte("MyApp, Version=1.0.0.0"))
		return w.Bytes(), protocol.ErrNone
	})

	name, err := d.GetAssemblyName(1)
	require.NoError(t, err)
	assert.Equal(t, "MyApp, Version=1.0.0.0", string(name))
}
