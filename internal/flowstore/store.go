package flowstore

import (
	"time"

	"github.com/netflowd/netflowd/internal/exclude"
	"github.com/netflowd/netflowd/internal/flowkey"
	"github.com/netflowd/netflowd/internal/record"
	"github.com/netflowd/netflowd/internal/stats"
)

// Store is the sharded flow index: flowkey.ShardCount independently-locked
// shards, selected by flowkey.Shard. It is the single point where ingest,
// exclusion, and statistics meet.
type Store struct {
	shards   []*shard
	excluded *exclude.Set
	counters *stats.Counters
}

// New builds a Store with flowkey.ShardCount shards. excluded may be nil,
// in which case no address is ever excluded.
func New(excluded *exclude.Set, counters *stats.Counters) *Store {
	if excluded == nil {
		excluded = exclude.New()
	}
	shards := make([]*shard, flowkey.ShardCount)
	for i := range shards {
		shards[i] = newShard()
	}
	return &Store{shards: shards, excluded: excluded, counters: counters}
}

// Ingest folds one decoded flow record into the store. Both endpoints are
// checked against the exclusion set before the shard lock is ever taken —
// an excluded flow never reaches the index at all.
func (st *Store) Ingest(r *record.Flow) {
	st.counters.TotalFlows.Inc()
	st.counters.FlowPackets.Inc()

	if st.excluded.Contains(r.SrcAddr) || st.excluded.Contains(r.DstAddr) {
		st.counters.ExcludedFlows.Inc()
		return
	}

	key := flowkey.Key{
		Protocol: r.Protocol,
		SrcAddr:  r.SrcAddr,
		DstAddr:  r.DstAddr,
		SrcPort:  r.SrcPort,
		DstPort:  r.DstPort,
	}
	candidate := newSummary(r)
	sh := st.shards[flowkey.Shard(key)]

	// The shard lock is held from the probe through the source-list update,
	// so the janitor never observes a half-applied record.
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[key]
	wasNew := !ok
	if wasNew {
		entry = candidate
		sh.entries[key] = entry
	}

	if wasNew {
		st.counters.NewFlows.Inc()
		st.counters.CurrentFlows.Inc()
		st.counters.IncProto(r.Protocol)
	} else {
		st.counters.DupFlows.Inc()
		entry.mergeFields(r)
	}
	entry.addSource(r)
}

// Sweep runs one eviction pass over every shard at instant now: a summary
// is evicted if it has been idle past minAge, or if it has existed past
// maxAge regardless of recent activity (hard-out dominates idle-out). Each
// evicted summary is handed to sink before the next shard is visited —
// sink must not block for long, since it runs under the shard's lock by
// way of iterateAndEvict.
func (st *Store) Sweep(now time.Time, minAge, maxAge time.Duration, sink func(*Summary)) int {
	predicate := func(s *Summary) bool {
		if now.Sub(s.TimeAdded) > maxAge {
			return true
		}
		return now.Sub(s.TimeUpdated) > minAge
	}

	evicted := 0
	for _, sh := range st.shards {
		n := sh.iterateAndEvict(predicate, func(s *Summary) {
			st.counters.CurrentFlows.Dec()
			sink(s)
		})
		evicted += n
	}
	return evicted
}

// Count returns the total number of summaries currently tracked across all
// shards. Advisory only — it is stale the instant it is computed.
func (st *Store) Count() int {
	total := 0
	for _, sh := range st.shards {
		total += sh.count()
	}
	return total
}
