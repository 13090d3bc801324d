package transport

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-monodbg/monodbg/internal/protocol"
)

// DefaultTimeout is the time a caller waits for a reply before giving
// up, matching the original implementation's fixed 20-second budget.
const DefaultTimeout = 20 * time.Second

// Reply is what a pending transaction resolves to: a payload plus the
// reply's wire error code (protocol.ErrNone on success), or Err set
// when the transaction never got a real reply (disconnect).
type Reply struct {
	Payload []byte
	Code    protocol.ErrorCode
	Err     error
}

// Table correlates outbound request ids with their eventual reply.
// Exactly one of three things happens to every registered id: a
// matching reply arrives, the wait times out, or the table is closed
// (session disconnect) and every still-pending id is resolved with the
// disconnect error. Delivery is exactly-once via a buffered channel of
// size 1 per pending id.
type Table struct {
	mu      sync.Mutex
	pending map[uint32]chan Reply
	nextID  atomic.Uint32
	closed  bool
	closeErr error
}

// NewTable returns an empty transaction table.
func NewTable() *Table {
	return &Table{pending: make(map[uint32]chan Reply)}
}

// NextID allocates the next outbound request id, starting at 1 (id 0
// is reserved by convention for unsolicited traffic, of which this
// protocol has none on the request side).
func (t *Table) NextID() uint32 {
	return t.nextID.Add(1)
}

// Register creates the reply channel for id before the caller sends
// the request, so a reply racing in immediately after the write is
// never missed.
func (t *Table) Register(id uint32) (chan Reply, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, t.closeErr
	}
	ch := make(chan Reply, 1)
	t.pending[id] = ch
	return ch, nil
}

// Unregister removes id without resolving it, used when a request was
// never actually sent (e.g. the send itself failed).
func (t *Table) Unregister(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, id)
}

// Resolve delivers a reply to the transaction registered for id. It is
// a no-op if no such transaction is pending (a duplicate or unexpected
// reply id), matching the "do not send a packet, do not error loudly"
// posture for protocol-adjacent oddities that are not themselves fatal.
func (t *Table) Resolve(id uint32, reply Reply) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()
	if ok {
		ch <- reply
	}
}

// Wait blocks for id's reply, the timeout (DefaultTimeout when timeout
// <= 0), or table closure, whichever comes first. A non-nil error here is always transport-level
// (timeout or disconnect); a non-zero Reply.Code is an application-level
// remote error the caller interprets itself.
func (t *Table) Wait(id uint32, ch chan Reply, timeout time.Duration) (Reply, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		return reply, reply.Err
	case <-timer.C:
		t.Unregister(id)
		return Reply{}, fmt.Errorf("transaction %d: %w", id, ErrTimeout)
	}
}

// Close resolves every pending transaction with err and rejects all
// future registrations with the same err. Safe to call more than once;
// only the first call has effect.
func (t *Table) Close(err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.closeErr = err
	pending := t.pending
	t.pending = make(map[uint32]chan Reply)
	t.mu.Unlock()

	for _, ch := range pending {
		ch <- Reply{Err: err}
	}
}

// ErrTimeout is wrapped with the transaction id by Wait; callers
// compare via errors.Is through the wrapped error.
var ErrTimeout = errors.New("timed out waiting for reply")
