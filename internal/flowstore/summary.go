// Package flowstore implements the core of the collector: the sharded flow
// index, the flow summary and its per-exporter source list, the ingest
// path, and the janitor eviction sweep.
package flowstore

import (
	"time"

	"github.com/netflowd/netflowd/internal/flowkey"
	"github.com/netflowd/netflowd/internal/record"
)

// Source is one exporter's contribution to a flow summary. The source
// list of a Summary is kept in ascending Exporter order.
type Source struct {
	Exporter   uint32
	SrcIfIndex uint16
	DstIfIndex uint16
	Packets    uint64
	Bytes      uint64
	Flows      uint64
}

// Summary is the in-memory accumulation for one flow identity. It is
// owned by exactly one shard while tracked, and by the janitor in transit
// to the emitter once evicted.
type Summary struct {
	Key flowkey.Key

	TimeAdded   time.Time
	TimeUpdated time.Time
	StartTime   time.Time
	EndTime     time.Time
	TCPFlags    uint8

	Sources []Source
}

// SourceCount returns len(Sources), kept as a method rather than a stored
// field so the invariant source_count == len(sources) cannot drift.
func (s *Summary) SourceCount() int {
	return len(s.Sources)
}

// newSummary builds the candidate summary for a record that missed its
// shard: identity plus time_added = time_updated = recv_time, an empty
// source list to be populated by the caller.
func newSummary(r *record.Flow) *Summary {
	return &Summary{
		Key: flowkey.Key{
			Protocol: r.Protocol,
			SrcAddr:  r.SrcAddr,
			DstAddr:  r.DstAddr,
			SrcPort:  r.SrcPort,
			DstPort:  r.DstPort,
		},
		TimeAdded:   r.RecvTime,
		TimeUpdated: r.RecvTime,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		TCPFlags:    r.TCPFlags,
	}
}

// mergeFields folds r into an existing summary: tcp_flags is OR'd,
// start/end time take the envelope min/max, and time_updated takes the
// record's receive time (no max — receive times are assumed monotonic).
// Identity and time_added never change. The source list update is a
// separate step (addSource), applied on every ingested record whether or
// not it created the summary.
func (s *Summary) mergeFields(r *record.Flow) {
	s.TCPFlags |= r.TCPFlags
	if r.StartTime.Before(s.StartTime) {
		s.StartTime = r.StartTime
	}
	if r.EndTime.After(s.EndTime) {
		s.EndTime = r.EndTime
	}
	s.TimeUpdated = r.RecvTime
}

// addSource walks the ascending source list: updates an existing entry in
// place, or splices a new one in at the first point where the list's
// exporter exceeds the record's.
func (s *Summary) addSource(r *record.Flow) {
	for i := range s.Sources {
		switch {
		case s.Sources[i].Exporter == r.Exporter:
			s.Sources[i].Packets += r.Packets
			s.Sources[i].Bytes += r.Bytes
			s.Sources[i].Flows++
			return
		case s.Sources[i].Exporter > r.Exporter:
			s.insertSourceAt(i, r)
			return
		}
	}
	s.insertSourceAt(len(s.Sources), r)
}

func (s *Summary) insertSourceAt(i int, r *record.Flow) {
	src := Source{
		Exporter:   r.Exporter,
		SrcIfIndex: r.SrcIfIndex,
		DstIfIndex: r.DstIfIndex,
		Packets:    r.Packets,
		Bytes:      r.Bytes,
		Flows:      1,
	}
	s.Sources = append(s.Sources, Source{})
	copy(s.Sources[i+1:], s.Sources[i:])
	s.Sources[i] = src
}
