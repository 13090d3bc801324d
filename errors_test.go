package monodbg

import (
	"errors"
	"testing"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

func TestProtocolErrorMessage(t *testing.T) {
	inner := errors.New("short read")
	err := &ProtocolError{Op: "framer.read", Inner: inner}

	expected := "monodbg: protocol error during framer.read: short read"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, inner) {
		t.Error("Expected ProtocolError to unwrap to its Inner error")
	}
}

func TestProtocolErrorWithoutOp(t *testing.T) {
	inner := errors.New("eof")
	err := &ProtocolError{Inner: inner}

	expected := "monodbg: protocol error: eof"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestRemoteErrorMatchesByCode(t *testing.T) {
	err := NewRemoteError("GetTypeInfo", protocol.ErrInvalidTypeID)

	if !errors.Is(err, NewRemoteError("SomeOtherOp", protocol.ErrInvalidTypeID)) {
		t.Error("Expected RemoteError to match by Code regardless of Op")
	}

	if errors.Is(err, NewRemoteError("GetTypeInfo", protocol.ErrInvalidObject)) {
		t.Error("Expected RemoteError not to match a different Code")
	}
}

func TestIsRemoteCode(t *testing.T) {
	err := NewRemoteError("GetMethodInfo", protocol.ErrInvalidMethodID)

	if !IsRemoteCode(err, protocol.ErrInvalidMethodID) {
		t.Error("IsRemoteCode should return true for matching code")
	}
	if IsRemoteCode(err, protocol.ErrInvalidTypeID) {
		t.Error("IsRemoteCode should return false for non-matching code")
	}
	if IsRemoteCode(nil, protocol.ErrInvalidMethodID) {
		t.Error("IsRemoteCode should return false for nil error")
	}
	if IsRemoteCode(errors.New("not a RemoteError"), protocol.ErrInvalidMethodID) {
		t.Error("IsRemoteCode should return false for unrelated error types")
	}
}

func TestPreconditionError(t *testing.T) {
	err := preconditionError("StepIn", "no active step request")

	if !errors.Is(err, ErrPreconditionNotMet) {
		t.Error("Expected preconditionError to satisfy errors.Is for ErrPreconditionNotMet")
	}

	expected := "monodbg: StepIn: no active step request: monodbg: precondition not met"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrPreconditionNotMet,
		ErrUserBreakUnavailable,
		ErrDisconnected,
		ErrNotConnected,
		ErrTimeout,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			if errors.Is(a, b) {
				t.Errorf("Expected sentinel %d and %d to be distinct", i, j)
			}
		}
	}
}
