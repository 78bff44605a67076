package flowstore

import (
	"sync"

	"github.com/netflowd/netflowd/internal/flowkey"
)

// shard is one independently locked partition of the flow index. The
// mutex guards both structural changes (insert/delete) and in-place value
// mutation, since ingest and the janitor both read and write summaries
// under it — there is no reader/writer split.
type shard struct {
	mu      sync.Mutex
	entries map[flowkey.Key]*Summary
}

func newShard() *shard {
	return &shard{entries: make(map[flowkey.Key]*Summary)}
}

// probeOrInsert returns the existing summary for key if present;
// otherwise it inserts candidate and returns it with wasNew = true.
// Caller must hold no lock; probeOrInsert acquires and releases the
// shard's own lock.
func (s *shard) probeOrInsert(key flowkey.Key, candidate *Summary) (entry *Summary, wasNew bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		return existing, false
	}
	s.entries[key] = candidate
	return candidate, true
}

// evictPredicate decides whether a summary should be evicted at instant
// now: idle-out (no update within MinFlowAge) or hard-out (alive longer
// than MaxFlowAge). Hard-out dominates idle-out — a flow refreshed
// constantly is still evicted once it is old enough.
type evictPredicate func(s *Summary) bool

// iterateAndEvict visits every entry in the shard under a single held
// lock and hands each one matching predicate to sink after removing it
// from the map. Deleting the current entry during a Go map range is
// well-defined: it will not be produced again by this or any later range
// over the same map, so no lookahead cursor is needed to make deletion
// iteration-safe.
func (s *shard) iterateAndEvict(predicate evictPredicate, sink func(*Summary)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.entries {
		if predicate(entry) {
			delete(s.entries, key)
			sink(entry)
			evicted++
		}
	}
	return evicted
}

// count returns the number of live entries in the shard. Advisory: it is
// stale the instant the lock is released.
func (s *shard) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
