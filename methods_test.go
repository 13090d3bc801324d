package monodbg

import (
	"testing"

	"github.com/go-monodbg/monodbg/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodDebugInfoFindFirstAtOrAfter(t *testing.T) {
	info := &MethodDebugInfo{
		Lines: []DebugLine{
			{ILOffset: 0, Row: 10, Valid: true},
			{ILOffset: 8, Row: 11, Valid: true},
			{ILOffset: 20, Row: 12, Valid: true},
		},
	}

	line, ok := info.Find(5)
	require.True(t, ok)
	assert.Equal(t, uint32(8), line.ILOffset, "Find returns the first entry at or after the query, not the greatest predecessor")

	line, ok = info.Find(8)
	require.True(t, ok)
	assert.Equal(t, uint32(8), line.ILOffset)

	_, ok = info.Find(21)
	assert.False(t, ok)
}

func TestMethodDebugInfoFindLine(t *testing.T) {
	info := &MethodDebugInfo{
		Lines: []DebugLine{
			{ILOffset: 0, Row: 10, Col: 1},
			{ILOffset: 8, Row: 11, Col: 5},
		},
	}

	assert.Equal(t, uint32(8), info.FindLine(11, 0))
	assert.Equal(t, uint32(0), info.FindLine(12, 0))
}

func TestGetMethodDebugInfoIsCached(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	calls := 0
	mock.SetHandler(protocol.CmdSetMethod, byte(protocol.CmdMethodGetDebugInfo), func([]byte) ([]byte, protocol.ErrorCode) {
		calls++
		w := protocol.NewWriter()
		w.PutU32(16)
		w.PutString("Program.cs")
		w.PutU32(0)
		return w.Bytes(), protocol.ErrNone
	})

	_, err := d.GetMethodDebugInfo(1)
	require.NoError(t, err)
	_, err = d.GetMethodDebugInfo(1)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsMethodStatic(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetMethod, byte(protocol.CmdMethodGetInfo), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(protocol.MethodAttributeStatic)
		w.PutU32(0)
		w.PutU32(0)
		return w.Bytes(), protocol.ErrNone
	})

	static, err := d.IsMethodStatic(1)
	require.NoError(t, err)
	assert.True(t, static)
}

func TestGetMethodKind(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetMethod, byte(protocol.CmdMethodGetInfo), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(0)
		w.PutU32(protocol.MethodImplAttributeRuntime)
		w.PutU32(0)
		return w.Bytes(), protocol.ErrNone
	})

	kind, err := d.GetMethodKind(1)
	require.NoError(t, err)
	assert.Equal(t, MethodKindRuntime, kind)
}

func TestGetParamAndLocalNames(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetMethod, byte(protocol.CmdMethodGetParamInfo), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(2)
		w.PutString("a")
		w.PutString("b")
		return w.Bytes(), protocol.ErrNone
	})
	mock.SetHandler(protocol.CmdSetMethod, byte(protocol.CmdMethodGetLocalsInfo), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(1)
		w.PutString("tmp")
		return w.Bytes(), protocol.ErrNone
	})

	count, err := d.GetParamCount(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)

	names, err := d.GetParamNames(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	localCount, err := d.GetLocalsCount(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), localCount)

	localNames, err := d.GetLocalNames(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp"}, localNames)
}
