package monodbg

import (
	"time"

	"github.com/go-monodbg/monodbg/internal/logging"
)

// Config configures a Debugger session. A zero Config is valid; every
// field defaults as documented.
type Config struct {
	// CacheSize bounds the facade's method/type info LRU. Zero uses
	// cache.DefaultSize.
	CacheSize int

	// RequestTimeout bounds how long a single request waits for its
	// reply. Zero uses transport.DefaultTimeout.
	RequestTimeout time.Duration

	// Logger receives structured log lines tagged with the session's
	// UUID. Nil uses logging.Default().
	Logger *logging.Logger

	// Subscriber receives events and the terminal protocol error, if
	// any. Nil means events are parsed and discarded.
	Subscriber Subscriber
}
