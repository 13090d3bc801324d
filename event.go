package monodbg

import "github.com/go-monodbg/monodbg/internal/events"

// EventKind enumerates the kinds of events a composite packet carries.
type EventKind = events.Kind

// Event is a single debuggee event. Only the fields relevant to Kind
// are populated; the rest are left zero.
type Event = events.Event

// Subscriber receives events and fatal errors for one open session.
// OnEvent is called once per event in wire order; OnError is called at
// most once, when the session transitions to a terminal protocol-error
// state.
type Subscriber = events.Subscriber

const (
	EventVMStart         = events.Kind(0)
	EventVMDeath         = events.Kind(1)
	EventThreadStart     = events.Kind(2)
	EventThreadDeath     = events.Kind(3)
	EventAppDomainCreate = events.Kind(4)
	EventAppDomainUnload = events.Kind(5)
	EventMethodEntry     = events.Kind(6)
	EventMethodExit      = events.Kind(7)
	EventAssemblyLoad    = events.Kind(8)
	EventAssemblyUnload  = events.Kind(9)
	EventBreakpoint      = events.Kind(10)
	EventStep            = events.Kind(11)
	EventTypeLoad        = events.Kind(12)
	EventException       = events.Kind(13)
	EventKeepAlive       = events.Kind(14)
	EventUserBreak       = events.Kind(15)
	EventUserLog         = events.Kind(16)
)
