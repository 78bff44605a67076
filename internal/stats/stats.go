// Package stats holds the collector's monotonic counters and the one
// live-flow gauge, and optionally exposes them as Prometheus metrics for
// external scraping.
package stats

import (
	"sync"

	"go.uber.org/atomic"
)

// Counters is the flat collection of accumulators tracked for one
// collector instance. CurrentFlows is mutated by both the ingest path and
// the janitor, so every field here is an atomic, not just the gauge; the
// rest may be "best effort" under contention but a stray torn read/write
// is not a concern worth a second synchronization scheme.
type Counters struct {
	TotalFlows    atomic.Uint64
	ExcludedFlows atomic.Uint64
	NewFlows      atomic.Uint64
	DupFlows      atomic.Uint64
	CurrentFlows  atomic.Int64 // gauge: can dip briefly negative under contention
	FlowPackets   atomic.Uint64

	protoMu    sync.Mutex
	protoFlows map[uint8]*atomic.Uint64
}

// New returns a zeroed Counters ready for use.
func New() *Counters {
	return &Counters{protoFlows: make(map[uint8]*atomic.Uint64)}
}

// IncProto increments the new-flow count for protocol, creating its
// counter on first use. A lazily populated map avoids reserving slots for
// protocols that never appear.
func (c *Counters) IncProto(protocol uint8) {
	c.protoMu.Lock()
	counter, ok := c.protoFlows[protocol]
	if !ok {
		counter = atomic.NewUint64(0)
		c.protoFlows[protocol] = counter
	}
	c.protoMu.Unlock()
	counter.Inc()
}

// ProtoFlows returns a snapshot of the per-protocol new-flow counts.
func (c *Counters) ProtoFlows() map[uint8]uint64 {
	c.protoMu.Lock()
	defer c.protoMu.Unlock()

	out := make(map[uint8]uint64, len(c.protoFlows))
	for proto, counter := range c.protoFlows {
		out[proto] = counter.Load()
	}
	return out
}
