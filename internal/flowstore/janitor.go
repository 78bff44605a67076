package flowstore

import (
	"context"
	"time"

	"github.com/netflowd/netflowd/internal/logger"
)

// Janitor periodically sweeps a Store for idle-out/hard-out eviction,
// handing every evicted summary to Emit.
type Janitor struct {
	store    *Store
	Interval time.Duration
	MinAge   time.Duration
	MaxAge   time.Duration
	Emit     func(*Summary)
	Log      *logger.Logger
}

// NewJanitor builds a Janitor over store with the given sweep interval and
// age thresholds. emit is called once per evicted summary; it must not
// retain the Summary pointer's Sources slice without copying, since the
// Summary is fully owned by the caller once emit returns.
func NewJanitor(store *Store, interval, minAge, maxAge time.Duration, emit func(*Summary), log *logger.Logger) *Janitor {
	return &Janitor{
		store:    store,
		Interval: interval,
		MinAge:   minAge,
		MaxAge:   maxAge,
		Emit:     emit,
		Log:      log,
	}
}

// Run blocks, sweeping every Interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			j.sweepOnce(now)
		}
	}
}

func (j *Janitor) sweepOnce(now time.Time) {
	evicted := j.store.Sweep(now, j.MinAge, j.MaxAge, j.Emit)
	if evicted > 0 && j.Log != nil {
		j.Log.Debug("janitor swept flow store", "evicted", evicted, "current", j.store.Count())
	}
}
