package emit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/netflowd/netflowd/internal/flowstore"
	"github.com/netflowd/netflowd/internal/record"
	"github.com/netflowd/netflowd/internal/stats"
)

func TestToDocumentMatchesSchema(t *testing.T) {
	now := time.Unix(1000, 0)
	r := &record.Flow{
		Exporter:  0xC0000201, // 192.0.2.1
		RecvTime:  now,
		SrcAddr:   0x0A000001, // 10.0.0.1
		DstAddr:   0x0A000002, // 10.0.0.2
		SrcPort:   1234,
		DstPort:   80,
		Protocol:  6,
		TCPFlags:  0x02,
		Packets:   5,
		Bytes:     500,
		StartTime: now,
		EndTime:   now,
	}

	st := flowstore.New(nil, stats.New())
	st.Ingest(r)

	var doc Document
	var found bool
	st.Sweep(now.Add(time.Hour), time.Minute, time.Minute, func(s *flowstore.Summary) {
		doc = ToDocument(s)
		found = true
	})
	if !found {
		t.Fatalf("expected the single flow to be evicted")
	}

	if doc.SrcAddr != "10.0.0.1" || doc.DstAddr != "10.0.0.2" {
		t.Fatalf("unexpected addresses: %+v", doc)
	}
	if doc.Protocol != 6 || doc.SrcPort != 1234 || doc.DstPort != 80 || doc.TCPFlags != 2 {
		t.Fatalf("unexpected 5-tuple/flags: %+v", doc)
	}
	if doc.SourceCount != 1 || len(doc.SourceStats) != 1 {
		t.Fatalf("expected one source, got %+v", doc)
	}
	stat := doc.SourceStats[0]
	if stat.FlowSource != "192.0.2.1" || stat.NumPackets != 5 || stat.NumBytes != 500 || stat.NumFlows != 1 {
		t.Fatalf("unexpected source stat: %+v", stat)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var roundTrip map[string]any
	if err := json.Unmarshal(raw, &roundTrip); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, field := range []string{"src_addr", "dst_addr", "protocol", "src_port", "dst_port",
		"tcp_flags", "start_time", "end_time", "source_count", "source_stats"} {
		if _, ok := roundTrip[field]; !ok {
			t.Fatalf("expected field %q in emitted JSON", field)
		}
	}
}

func TestIPStringFormatsDottedQuad(t *testing.T) {
	if got := ipString(0xC0A80101); got != "192.168.1.1" {
		t.Fatalf("expected 192.168.1.1, got %s", got)
	}
}
