package monodbg

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the request/reply latency histogram buckets
// in nanoseconds, log-spaced from 1us to 10s — the same boundaries the
// teacher project uses for its I/O latency histogram, repurposed here
// for round-trip request latency instead of device I/O latency.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks request/reply/event traffic for one Debugger session.
type Metrics struct {
	RequestsSent     atomic.Uint64
	RepliesReceived  atomic.Uint64
	EventsDispatched atomic.Uint64
	ProtocolErrors   atomic.Uint64
	RemoteErrors     atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative counts)
	LatencyHist [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics creates a new metrics instance, stamped with the current
// time as its start.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRequest is called when a request is sent on the wire.
func (m *Metrics) RecordRequest() {
	m.RequestsSent.Add(1)
}

// RecordReply is called when a reply is received, recording the
// round-trip latency since the request was sent.
func (m *Metrics) RecordReply(latency time.Duration) {
	m.RepliesReceived.Add(1)
	m.recordLatency(uint64(latency.Nanoseconds()))
}

// RecordEvent is called once per individual event dispatched to a
// subscriber (a composite packet of N events counts as N calls).
func (m *Metrics) RecordEvent() {
	m.EventsDispatched.Add(1)
}

// RecordProtocolError is called when the session transitions to the
// protocol-error state.
func (m *Metrics) RecordProtocolError() {
	m.ProtocolErrors.Add(1)
}

// RecordRemoteError is called when a reply carries a non-zero error code.
func (m *Metrics) RecordRemoteError() {
	m.RemoteErrors.Add(1)
}

// recordLatency records operation latency and updates the histogram.
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHist[i].Add(1)
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to read
// without racing further updates.
type MetricsSnapshot struct {
	RequestsSent     uint64
	RepliesReceived  uint64
	EventsDispatched uint64
	ProtocolErrors   uint64
	RemoteErrors     uint64

	AvgLatencyNs     uint64
	LatencyHistogram [numLatencyBuckets]uint64
	UptimeNs         uint64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		RequestsSent:     m.RequestsSent.Load(),
		RepliesReceived:  m.RepliesReceived.Load(),
		EventsDispatched: m.EventsDispatched.Load(),
		ProtocolErrors:   m.ProtocolErrors.Load(),
		RemoteErrors:     m.RemoteErrors.Load(),
		UptimeNs:         uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHist[i].Load()
	}

	return snap
}

// Reset clears all counters, for test isolation between cases sharing
// a Metrics instance.
func (m *Metrics) Reset() {
	m.RequestsSent.Store(0)
	m.RepliesReceived.Store(0)
	m.EventsDispatched.Store(0)
	m.ProtocolErrors.Store(0)
	m.RemoteErrors.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyHist[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
}
