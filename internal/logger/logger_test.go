package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerConsoleOnly(t *testing.T) {
	log, err := NewLogger(&Config{Console: ConsoleConfig{Enabled: true, Level: "info", Format: "text"}})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer log.Close()

	if !log.consoleEnabled || log.fileEnabled {
		t.Fatalf("expected console-only logger, got console=%v file=%v", log.consoleEnabled, log.fileEnabled)
	}
	log.Info("hello", "key", "value")
}

func TestNewLoggerFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netflowd.log")
	log, err := NewLogger(&Config{File: FileConfig{Enabled: true, Level: "debug", Format: "json", Path: path}})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Info("hello from file sink")
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected the file sink to have written something")
	}
}

func TestNewLoggerDualSinkWritesToBoth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netflowd.log")
	log, err := NewLogger(&Config{
		Console: ConsoleConfig{Enabled: true, Level: "info", Format: "text"},
		File:    FileConfig{Enabled: true, Level: "info", Format: "text", Path: path},
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer log.Close()

	if !log.consoleEnabled || !log.fileEnabled {
		t.Fatalf("expected both sinks enabled, got console=%v file=%v", log.consoleEnabled, log.fileEnabled)
	}
	log.Warn("dual sink warning", "n", 1)
}

func TestNewLoggerDefaultsToConsoleWhenNothingConfigured(t *testing.T) {
	log, err := NewLogger(&Config{})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer log.Close()

	if !log.consoleEnabled || log.fileEnabled {
		t.Fatalf("expected a default console-only logger, got console=%v file=%v", log.consoleEnabled, log.fileEnabled)
	}
}

func TestCloseWithoutFileSinkIsNoop(t *testing.T) {
	log, err := NewLogger(&Config{Console: ConsoleConfig{Enabled: true, Level: "info", Format: "text"}})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestParseFieldsIgnoresNonStringKeys(t *testing.T) {
	log := &Logger{}
	fields := log.parseFields("a", 1, 2, "skipped", "b", "two")
	if fields["a"] != 1 {
		t.Fatalf("expected field a=1, got %v", fields["a"])
	}
	if fields["b"] != "two" {
		t.Fatalf("expected field b=two, got %v", fields["b"])
	}
	if len(fields) != 2 {
		t.Fatalf("expected exactly 2 parsed fields, got %d: %+v", len(fields), fields)
	}
}
