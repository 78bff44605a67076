package flowstore

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/netflowd/netflowd/internal/exclude"
	"github.com/netflowd/netflowd/internal/stats"
)

func TestJanitorRunEvictsOnSchedule(t *testing.T) {
	st := New(exclude.New(), stats.New())
	r := baseRecord()
	r.RecvTime = time.Now().Add(-time.Hour)
	r.StartTime = r.RecvTime
	r.EndTime = r.RecvTime
	st.Ingest(r)

	var evicted int32
	j := NewJanitor(st, 20*time.Millisecond, time.Minute, time.Minute, func(*Summary) {
		atomic.AddInt32(&evicted, 1)
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	j.Run(ctx)

	if atomic.LoadInt32(&evicted) == 0 {
		t.Fatalf("expected the janitor to evict the stale flow within the test window")
	}
	if st.Count() != 0 {
		t.Fatalf("expected store empty after janitor sweep, has %d", st.Count())
	}
}

func TestJanitorSweepOnceIsIdempotentOnEmptyStore(t *testing.T) {
	st := New(exclude.New(), stats.New())
	j := NewJanitor(st, time.Second, time.Minute, 5*time.Minute, func(*Summary) {
		t.Fatalf("did not expect any eviction on an empty store")
	}, nil)

	j.sweepOnce(time.Now())
	j.sweepOnce(time.Now())
}
