package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netflowd/netflowd/internal/flowstore"
	"github.com/netflowd/netflowd/internal/record"
	"github.com/netflowd/netflowd/internal/stats"
)

func TestFileWriterLogsEvictedSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flows.log")

	w, err := NewFileWriter(true, path, "json")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer w.Close()

	st := flowstore.New(nil, stats.New())
	now := time.Unix(1_700_000_000, 0)
	st.Ingest(&record.Flow{
		Exporter: 1, RecvTime: now, SrcAddr: 1, DstAddr: 2,
		SrcPort: 10, DstPort: 20, Protocol: 17, Packets: 1, Bytes: 10,
		StartTime: now, EndTime: now,
	})

	st.Sweep(now.Add(time.Hour), time.Minute, time.Minute, func(s *flowstore.Summary) {
		if err := w.Emit(s); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected the log file to contain the evicted summary")
	}
}

func TestFileWriterDisabledIsNoop(t *testing.T) {
	w, err := NewFileWriter(false, "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := w.Emit(&flowstore.Summary{}); err != nil {
		t.Fatalf("expected disabled writer to be a no-op, got %v", err)
	}
}
