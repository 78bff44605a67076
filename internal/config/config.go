// Package config loads the collector's YAML configuration file, applying
// the reference constants as defaults for unset listen, store, emit and
// logging settings.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Listen     ListenConfig     `yaml:"listen"`
	Store      StoreConfig      `yaml:"store"`
	Exclusions []ExclusionEntry `yaml:"exclusions"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ListenConfig describes the ingest socket.
type ListenConfig struct {
	Addr         string `yaml:"addr"`
	BufferSize   int    `yaml:"buffer_size"`
	RecvBufBytes int    `yaml:"recv_buf_bytes"`
}

// StoreConfig holds the flow store's timing parameters.
type StoreConfig struct {
	MinFlowAgeSeconds    int `yaml:"min_flow_age_seconds"`
	MaxFlowAgeSeconds    int `yaml:"max_flow_age_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	StatsRateSeconds     int `yaml:"stats_rate_seconds"`
}

// ExclusionEntry is one configured closed IPv4 address range to drop,
// expressed as dotted-quad strings in the YAML file.
type ExclusionEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// OutputConfig contains all output sink settings.
type OutputConfig struct {
	Emit        EmitConfig        `yaml:"emit"`
	File        FileOutputConfig  `yaml:"file"`
	PCAP        PCAPOutputConfig  `yaml:"pcap"`
	HTTPForward HTTPForwardConfig `yaml:"http_forward"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// EmitConfig describes the primary JSON-over-UDP emitter.
type EmitConfig struct {
	SrcAddr      string `yaml:"src_addr"`
	DstAddr      string `yaml:"dst_addr"`
	SendBufBytes int    `yaml:"send_buf_bytes"`
}

// FileOutputConfig contains file output settings for evicted summaries.
type FileOutputConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"`
	Format     string `yaml:"format"`
}

// PCAPOutputConfig contains pcapdump output settings.
type PCAPOutputConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	SrcAddr    string `yaml:"src_addr"`
	DstAddr    string `yaml:"dst_addr"`
	SrcPort    uint16 `yaml:"src_port"`
	DstPort    uint16 `yaml:"dst_port"`
}

// HTTPForwardFilterConfig contains flow filtering criteria.
type HTTPForwardFilterConfig struct {
	SrcAddr  string `yaml:"src_addr"`
	DstAddr  string `yaml:"dst_addr"`
	DstPort  uint16 `yaml:"dst_port"`
	Protocol string `yaml:"protocol"`
}

// HTTPForwardConfig contains secondary HTTP-forward export settings.
type HTTPForwardConfig struct {
	Enabled          bool                    `yaml:"enabled"`
	Filter           HTTPForwardFilterConfig `yaml:"filter"`
	UpstreamURL      string                  `yaml:"upstream_url"`
	IgnoreSSL        bool                    `yaml:"ignore_ssl"`
	IgnoreHTTPErrors bool                    `yaml:"ignore_http_errors"`
}

// MetricsConfig controls the optional Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	File    FileLoggingConfig    `yaml:"file"`
	Console ConsoleLoggingConfig `yaml:"console"`
}

// FileLoggingConfig configures the file log sink.
type FileLoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Path    string `yaml:"path"`
}

// ConsoleLoggingConfig configures the console log sink.
type ConsoleLoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// ParsedExclusion is one exclusion range resolved to host-byte-order
// IPv4 endpoints.
type ParsedExclusion struct {
	Start uint32
	End   uint32
}

// ParseExclusions resolves every configured dotted-quad exclusion entry.
func (c *Config) ParseExclusions() ([]ParsedExclusion, error) {
	out := make([]ParsedExclusion, 0, len(c.Exclusions))
	for _, e := range c.Exclusions {
		start, err := parseIPv4(e.Start)
		if err != nil {
			return nil, fmt.Errorf("exclusion start %q: %w", e.Start, err)
		}
		end, err := parseIPv4(e.End)
		if err != nil {
			return nil, fmt.Errorf("exclusion end %q: %w", e.End, err)
		}
		out = append(out, ParsedExclusion{Start: start, End: end})
	}
	return out, nil
}

func parseIPv4(s string) (uint32, error) {
	ip := net.ParseIP(s).To4()
	if ip == nil {
		return 0, fmt.Errorf("not a valid IPv4 address")
	}
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3]), nil
}

// Load reads and parses the configuration file, using defaults if the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in the collector's fixed defaults for listen, store
// and emit fields left unset in the YAML file, and enables an info-level
// text console log when no log sink is enabled. The file, pcap,
// HTTP-forward and metrics output sections get no defaults.
func applyDefaults(cfg *Config) {
	if cfg.Listen.Addr == "" {
		cfg.Listen.Addr = "0.0.0.0:2055"
	}
	if cfg.Listen.BufferSize == 0 {
		cfg.Listen.BufferSize = 65536
	}
	if cfg.Listen.RecvBufBytes == 0 {
		cfg.Listen.RecvBufBytes = 1024 * 1024
	}

	if cfg.Store.MinFlowAgeSeconds == 0 {
		cfg.Store.MinFlowAgeSeconds = 60
	}
	if cfg.Store.MaxFlowAgeSeconds == 0 {
		cfg.Store.MaxFlowAgeSeconds = 300
	}
	if cfg.Store.SweepIntervalSeconds == 0 {
		cfg.Store.SweepIntervalSeconds = 5
	}
	if cfg.Store.StatsRateSeconds == 0 {
		cfg.Store.StatsRateSeconds = 60
	}

	if cfg.Output.Emit.DstAddr == "" {
		cfg.Output.Emit.DstAddr = "127.0.0.1:2056"
	}
	if cfg.Output.Emit.SrcAddr == "" {
		cfg.Output.Emit.SrcAddr = "0.0.0.0:0"
	}
	if cfg.Output.Emit.SendBufBytes == 0 {
		cfg.Output.Emit.SendBufBytes = 65536
	}

	if !cfg.Logging.Console.Enabled && !cfg.Logging.File.Enabled {
		cfg.Logging.Console.Enabled = true
		cfg.Logging.Console.Level = "info"
		cfg.Logging.Console.Format = "text"
	}
}
