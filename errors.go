package monodbg

import (
	"errors"
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// ErrorCode identifies the category of a remote call failure as
// reported by the debuggee in a reply packet's error field.
type ErrorCode = protocol.ErrorCode

// ProtocolError represents a fatal failure of the wire protocol itself:
// a malformed frame, an unexpected handshake response, or loss of the
// underlying connection. A ProtocolError always ends the session; every
// pending transaction resolves with ErrDisconnected and OnError is
// invoked exactly once.
type ProtocolError struct {
	Op    string // transport operation that detected the failure
	Inner error
}

func (e *ProtocolError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("monodbg: protocol error during %s: %v", e.Op, e.Inner)
	}
	return fmt.Sprintf("monodbg: protocol error: %v", e.Inner)
}

func (e *ProtocolError) Unwrap() error { return e.Inner }

// RemoteError represents a non-fatal error code returned by the
// debuggee for a single request. The session remains usable.
type RemoteError struct {
	Op   string    // the facade operation that issued the request
	Code ErrorCode // the error code reported in the reply header
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("monodbg: %s: %s", e.Op, e.Code)
}

// Is allows errors.Is(err, &RemoteError{Code: X}) to match by Code alone.
func (e *RemoteError) Is(target error) bool {
	te, ok := target.(*RemoteError)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewRemoteError constructs a RemoteError for the given operation and
// reply error code.
func NewRemoteError(op string, code ErrorCode) *RemoteError {
	return &RemoteError{Op: op, Code: code}
}

// IsRemoteCode reports whether err is a *RemoteError carrying code.
func IsRemoteCode(err error, code ErrorCode) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// Local contract violations: the caller asked for something the
// session's current state cannot satisfy, so no packet is sent.
var (
	// ErrPreconditionNotMet is the sentinel that preconditionError wraps
	// with operation-specific context. No facade operation in this
	// package returns it: stepping does not check whether the VM is
	// running, and removing an absent breakpoint succeeds as a no-op.
	ErrPreconditionNotMet = errors.New("monodbg: precondition not met")

	// ErrUserBreakUnavailable is returned unconditionally by
	// CallUserBreak. The original resolves the "Debugger.Break" method
	// id into a field that is never populated along any reachable code
	// path, so the call can never succeed; monodbg preserves that
	// behavior rather than inventing a resolution strategy the original
	// never had.
	ErrUserBreakUnavailable = errors.New("monodbg: user break method is not resolved")

	// ErrDisconnected is delivered to every pending transaction when the
	// session transitions to ProtocolError or is explicitly closed.
	ErrDisconnected = errors.New("monodbg: session disconnected")

	// ErrNotConnected is returned by facade calls made before Open
	// completes or after Close.
	ErrNotConnected = errors.New("monodbg: not connected")

	// ErrTimeout is returned when a transaction's reply does not arrive
	// within its deadline.
	ErrTimeout = errors.New("monodbg: request timed out")
)

// preconditionError builds a precondition-violation error carrying the
// failing operation and reason, while still satisfying
// errors.Is(err, ErrPreconditionNotMet).
func preconditionError(op, reason string) error {
	return fmt.Errorf("monodbg: %s: %s: %w", op, reason, ErrPreconditionNotMet)
}
