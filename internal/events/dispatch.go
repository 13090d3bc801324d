// Package events decodes composite event packets (CMD_SET_EVENT /
// CMD_COMPOSITE) into individual Event records and delivers them to a
// subscriber in packet order.
package events

import (
	"fmt"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// Kind is an alias of the wire-level event kind enum.
type Kind = protocol.EventKind

// Event is a single flat struct carrying every kind-specific field,
// zero-valued when unused, discriminated by Kind. This mirrors the
// wire format's own shape (one compact record per event within a
// composite packet) rather than splitting into per-kind Go types.
type Event struct {
	Kind     Kind
	RequestID uint32
	ThreadID uint32

	// Kind-specific fields.
	ExitCode     int32  // VM_DEATH
	AppDomainID  uint32 // APPDOMAIN_CREATE/UNLOAD
	AssemblyID   uint32 // ASSEMBLY_LOAD/UNLOAD
	MethodID     uint32 // METHOD_ENTRY/EXIT, BREAKPOINT, STEP
	TypeID       uint32 // TYPE_LOAD
	Location     uint32 // BREAKPOINT/STEP IL offset, coerced from u64 (0 if the
	                    // original 64-bit offset did not fit in 32 bits)
	ExceptionID  uint32 // EXCEPTION object id
	Caught       bool   // EXCEPTION
	Level        uint32 // USER_LOG
	Message      string // USER_LOG: "category\nmessage", joined per the
	                    // original implementation's single-string event field
}

// ParseComposite decodes one CMD_COMPOSITE payload into its constituent
// events, in wire order. A composite packet always arrives as a single
// frame, so no partial-packet handling is needed here; the framer has
// already delivered the whole payload.
func ParseComposite(payload []byte) ([]Event, error) {
	r := protocol.NewReader(payload)

	if _, err := r.U8(); err != nil { // suspend_policy, not needed by callers here
		return nil, fmt.Errorf("events: read suspend policy: %w", err)
	}
	count, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("events: read event count: %w", err)
	}

	out := make([]Event, 0, count)
	for i := uint32(0); i < count; i++ {
		kindByte, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("events: event %d/%d: read kind: %w", i+1, count, err)
		}
		requestID, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("events: event %d/%d: read request id: %w", i+1, count, err)
		}
		ev, err := parseBody(r, Kind(kindByte))
		if err != nil {
			return nil, fmt.Errorf("events: event %d/%d: %w", i+1, count, err)
		}
		ev.RequestID = requestID
		out = append(out, ev)
	}
	return out, nil
}

// ParseSingle decodes one non-composite event packet, whose kind is
// already known from the frame's command byte (the wire format does
// not repeat it inside the payload the way a composite sub-event does).
func ParseSingle(kind Kind, payload []byte) (Event, error) {
	r := protocol.NewReader(payload)
	return parseBody(r, kind)
}

func parseBody(r *protocol.Reader, kind Kind) (Event, error) {
	ev := Event{Kind: kind}

	switch kind {
	case protocol.EventVMStart, protocol.EventVMDeath:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID
		if kind == protocol.EventVMDeath {
			exitCode, err := r.I32()
			if err != nil {
				return Event{}, err
			}
			ev.ExitCode = exitCode
		}

	case protocol.EventThreadStart, protocol.EventThreadDeath:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID

	case protocol.EventAppDomainCreate, protocol.EventAppDomainUnload:
		domainID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		ev.AppDomainID = domainID

	case protocol.EventAssemblyLoad, protocol.EventAssemblyUnload:
		asmID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		ev.AssemblyID = asmID

	case protocol.EventMethodEntry, protocol.EventMethodExit:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		methodID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID
		ev.MethodID = methodID

	case protocol.EventBreakpoint, protocol.EventStep:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		methodID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		offset64, err := r.U64()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID
		ev.MethodID = methodID
		ev.Location = coerceOffset(offset64)

	case protocol.EventTypeLoad:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		typeID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID
		ev.TypeID = typeID

	case protocol.EventException:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		objID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		caught, err := r.U8()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID
		ev.ExceptionID = objID
		ev.Caught = caught != 0

	case protocol.EventKeepAlive, protocol.EventUserBreak:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID

	case protocol.EventUserLog:
		threadID, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		level, err := r.U32()
		if err != nil {
			return Event{}, err
		}
		category, err := r.String()
		if err != nil {
			return Event{}, err
		}
		message, err := r.String()
		if err != nil {
			return Event{}, err
		}
		ev.ThreadID = threadID
		ev.Level = level
		ev.Message = category + "\n" + message

	default:
		return Event{}, fmt.Errorf("unknown event kind 0x%02x", byte(kind))
	}

	return ev, nil
}

// coerceOffset maps a 64-bit IL offset field down to uint32, returning
// 0 when it does not fit. The original implementation reads this field
// as a 64-bit quantity but every caller treats it as a 32-bit IL
// offset; out-of-range values are treated as "offset unknown" rather
// than corrupting the low bits.
func coerceOffset(v uint64) uint32 {
	if v > 0xffffffff {
		return 0
	}
	return uint32(v)
}

// Subscriber receives events and fatal errors from one session.
type Subscriber interface {
	OnEvent(Event)
	OnError(error)
}

// Dispatch delivers events to sub in packet order, synchronously: the
// dispatcher never spawns a goroutine per event, so a slow subscriber
// applies backpressure to the framer's read loop rather than letting
// events reorder.
func Dispatch(sub Subscriber, events []Event) {
	if sub == nil {
		return
	}
	for _, ev := range events {
		sub.OnEvent(ev)
	}
}
