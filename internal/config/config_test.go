package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen.Addr != "0.0.0.0:2055" {
		t.Fatalf("unexpected default listen addr: %q", cfg.Listen.Addr)
	}
	if cfg.Store.MinFlowAgeSeconds != 60 || cfg.Store.MaxFlowAgeSeconds != 300 {
		t.Fatalf("unexpected default flow ages: %+v", cfg.Store)
	}
	if !cfg.Logging.Console.Enabled {
		t.Fatalf("expected console logging to default on when nothing is configured")
	}
}

func TestLoadParsesYAMLAndPreservesExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
listen:
  addr: "127.0.0.1:9000"
store:
  min_flow_age_seconds: 30
exclusions:
  - start: "10.0.0.0"
    end: "10.0.0.255"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected listen addr: %q", cfg.Listen.Addr)
	}
	if cfg.Store.MinFlowAgeSeconds != 30 {
		t.Fatalf("expected explicit value to survive defaulting, got %d", cfg.Store.MinFlowAgeSeconds)
	}
	if cfg.Store.MaxFlowAgeSeconds != 300 {
		t.Fatalf("expected unset value to take the default, got %d", cfg.Store.MaxFlowAgeSeconds)
	}

	ranges, err := cfg.ParseExclusions()
	if err != nil {
		t.Fatalf("ParseExclusions: %v", err)
	}
	if len(ranges) != 1 || ranges[0].Start != 0x0A000000 || ranges[0].End != 0x0A0000FF {
		t.Fatalf("unexpected parsed exclusion: %+v", ranges)
	}
}
