package monodbg

import (
	"testing"

	"github.com/go-monodbg/monodbg/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetString(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetStringRef, byte(protocol.CmdStringGetValue), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutString("hello")
		return w.Bytes(), protocol.ErrNone
	})

	s, err := d.GetString(1)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestGetArrayLength(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetArrayRef, byte(protocol.CmdArrayGetLength), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(3)
		return w.Bytes(), protocol.ErrNone
	})

	n, err := d.GetArrayLength(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), n)
}

func TestGetArrayValues(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetArrayRef, byte(protocol.CmdArrayGetValues), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		writeVI4(w, 1)
		writeVI4(w, 2)
		return w.Bytes(), protocol.ErrNone
	})

	values, err := d.GetArrayValues(1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []Value{VI4(1), VI4(2)}, values)
}
