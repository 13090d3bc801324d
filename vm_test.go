package monodbg

import (
	"testing"

	"github.com/go-monodbg/monodbg/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeAndSuspend(t *testing.T) {
	d, _ := OpenWithMockDebuggee(t, nil)
	require.NoError(t, d.Suspend())
	require.NoError(t, d.Resume())
}

func TestExitToleratesDisconnect(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMExit), func([]byte) ([]byte, protocol.ErrorCode) {
		mock.Close()
		return nil, protocol.ErrNone
	})
	err := d.Exit(0)
	assert.NoError(t, err)
}

func TestGetCoreLib(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetAppDomain, byte(protocol.CmdAppDomainGetCorlib), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(77)
		return w.Bytes(), protocol.ErrNone
	})

	id, err := d.GetCoreLib(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(77), id)
}

func TestFindType(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMGetTypes), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(2)
		w.PutU32(5)
		w.PutU32(6)
		return w.Bytes(), protocol.ErrNone
	})

	ids, err := d.FindType([]byte("System.String"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 6}, ids)
}

func TestFindTypeInAssembly(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetAssembly, byte(protocol.CmdAssemblyGetType), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(42)
		return w.Bytes(), protocol.ErrNone
	})

	id, err := d.FindTypeInAssembly([]byte("Foo"), 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)
}

func TestGetTypesOfSourceFile(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetVM, byte(protocol.CmdVMGetTypesForSource), func([]byte) ([]byte, protocol.ErrorCode) {
		w := protocol.NewWriter()
		w.PutU32(1)
		w.PutU32(9)
		return w.Bytes(), protocol.ErrNone
	})

	ids, err := d.GetTypesOfSourceFile("Program.cs")
	require.NoError(t, err)
	assert.Equal(t, []uint32{9}, ids)
}

func TestRemoteErrorDoesNotCloseSession(t *testing.T) {
	d, mock := OpenWithMockDebuggee(t, nil)
	mock.SetHandler(protocol.CmdSetAppDomain, byte(protocol.CmdAppDomainGetCorlib), func([]byte) ([]byte, protocol.ErrorCode) {
		return nil, protocol.ErrInvalidObject
	})

	_, err := d.GetCoreLib(1)
	require.Error(t, err)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, protocol.ErrInvalidObject, remoteErr.Code)
	assert.True(t, d.IsOpen(), "a remote error code must not tear down the session")
}
