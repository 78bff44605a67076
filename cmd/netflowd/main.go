package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netflowd/netflowd/internal/collector"
	"github.com/netflowd/netflowd/internal/config"
	"github.com/netflowd/netflowd/internal/emit"
	"github.com/netflowd/netflowd/internal/logger"
	"github.com/netflowd/netflowd/internal/netudp"
	"github.com/netflowd/netflowd/internal/output"
	"github.com/netflowd/netflowd/internal/pcapdump"
	"github.com/netflowd/netflowd/internal/stats"
	"github.com/netflowd/netflowd/internal/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("netflowd version %s\n", version.GetVersion())
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		File: logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Level:   cfg.Logging.File.Level,
			Format:  cfg.Logging.File.Format,
			Path:    cfg.Logging.File.Path,
		},
		Console: logger.ConsoleConfig{
			Enabled: cfg.Logging.Console.Enabled,
			Level:   cfg.Logging.Console.Level,
			Format:  cfg.Logging.Console.Format,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("========================================")
	log.Info("Starting netflowd", "version", version.GetVersion())
	log.Info("========================================")
	log.Info("Configuration loaded", "file", *configPath)
	log.Info("Listen settings", "addr", cfg.Listen.Addr, "buffer_size", cfg.Listen.BufferSize)

	sinks, closers := buildSinks(cfg, log)
	defer closeAll(closers)

	dispatcher := emit.NewDispatcher(log, sinks...)

	excluded, err := cfg.ParseExclusions()
	if err != nil {
		log.Error("Failed to parse exclusion ranges", "error", err)
		os.Exit(1)
	}
	ranges := make([]collector.ExclusionRange, len(excluded))
	for i, e := range excluded {
		ranges[i] = collector.ExclusionRange{Start: e.Start, End: e.End}
	}

	col, err := collector.New(collector.Config{
		ListenAddr:    cfg.Listen.Addr,
		BufferSize:    cfg.Listen.BufferSize,
		RecvBufBytes:  cfg.Listen.RecvBufBytes,
		SweepInterval: time.Duration(cfg.Store.SweepIntervalSeconds) * time.Second,
		MinFlowAge:    time.Duration(cfg.Store.MinFlowAgeSeconds) * time.Second,
		MaxFlowAge:    time.Duration(cfg.Store.MaxFlowAgeSeconds) * time.Second,
		StatsRate:     time.Duration(cfg.Store.StatsRateSeconds) * time.Second,
		Exclusions:    ranges,
	}, dispatcher.Emit, log)
	if err != nil {
		log.Error("Failed to create collector", "error", err)
		os.Exit(1)
	}
	log.Info("[OK] Collector created successfully")

	if cfg.Output.Metrics.Enabled {
		startMetricsServer(cfg.Output.Metrics.Addr, col.Counters(), log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := col.Run(ctx); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
		col.Stop()
		log.Info("[OK] Collector stopped")
	case err := <-errChan:
		log.Error("Collector encountered an error", "error", err)
		cancel()
		col.Stop()
		os.Exit(1)
	}

	log.Info("========================================")
	log.Info("netflowd terminated")
	log.Info("========================================")
}

// buildSinks wires every configured output sink per cfg, logging which
// ones are enabled, and returns them alongside anything needing Close.
func buildSinks(cfg *config.Config, log *logger.Logger) ([]emit.Sink, []interface{ Close() error }) {
	var sinks []emit.Sink
	var closers []interface{ Close() error }

	emitSink, err := buildUDPEmitter(cfg, log)
	if err != nil {
		log.Error("Failed to initialize JSON UDP emitter", "error", err)
		os.Exit(1)
	}
	sinks = append(sinks, emitSink)
	closers = append(closers, emitSink)

	if cfg.Output.File.Enabled {
		fw, err := output.NewFileWriter(true, cfg.Output.File.OutputFile, cfg.Output.File.Format)
		if err != nil {
			log.Error("Failed to initialize file output", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, fw)
		closers = append(closers, fw)
		log.Info("[OK] File output enabled", "file", cfg.Output.File.OutputFile)
	} else {
		log.Info("File output disabled")
	}

	if cfg.Output.PCAP.Enabled {
		pw, err := pcapdump.NewWriter(pcapdump.Config{
			OutputFile: cfg.Output.PCAP.OutputFile,
			MaxSizeMB:  cfg.Output.PCAP.MaxSizeMB,
			MaxBackups: cfg.Output.PCAP.MaxBackups,
			SrcAddr:    mustParseIP(cfg.Output.PCAP.SrcAddr),
			DstAddr:    mustParseIP(cfg.Output.PCAP.DstAddr),
			SrcPort:    cfg.Output.PCAP.SrcPort,
			DstPort:    cfg.Output.PCAP.DstPort,
		})
		if err != nil {
			log.Error("Failed to initialize pcap output", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, pw)
		closers = append(closers, pw)
		log.Info("[OK] PCAP capture of emitted flows enabled", "file", cfg.Output.PCAP.OutputFile)
	} else {
		log.Info("PCAP output disabled")
	}

	if cfg.Output.HTTPForward.Enabled {
		hf, err := emit.NewHTTPForward(emit.HTTPForwardConfig{
			Enabled: true,
			Filter: emit.Filter{
				SrcAddr:  cfg.Output.HTTPForward.Filter.SrcAddr,
				DstAddr:  cfg.Output.HTTPForward.Filter.DstAddr,
				DstPort:  cfg.Output.HTTPForward.Filter.DstPort,
				Protocol: cfg.Output.HTTPForward.Filter.Protocol,
			},
			UpstreamURL:      cfg.Output.HTTPForward.UpstreamURL,
			IgnoreSSL:        cfg.Output.HTTPForward.IgnoreSSL,
			IgnoreHTTPErrors: cfg.Output.HTTPForward.IgnoreHTTPErrors,
			Logger:           log,
		})
		if err != nil {
			log.Error("Failed to initialize http forward output", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, hf)
		closers = append(closers, hf)
		log.Info("[OK] HTTP forward output enabled", "upstream", cfg.Output.HTTPForward.UpstreamURL)
	} else {
		log.Info("HTTP forward output disabled")
	}

	return sinks, closers
}

func buildUDPEmitter(cfg *config.Config, log *logger.Logger) (*emit.UDPEmitter, error) {
	conn, err := netudp.DialWithBuffer(cfg.Output.Emit.SrcAddr, cfg.Output.Emit.DstAddr, cfg.Output.Emit.SendBufBytes, log)
	if err != nil {
		return nil, fmt.Errorf("main: build emit socket: %w", err)
	}
	return emit.NewUDPEmitterFromConn(conn), nil
}

func closeAll(closers []interface{ Close() error }) {
	for _, c := range closers {
		if c != nil {
			c.Close()
		}
	}
}

func mustParseIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		return net.IPv4(127, 0, 0, 1)
	}
	return ip
}

func startMetricsServer(addr string, counters *stats.Counters, log *logger.Logger) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(stats.NewPrometheusCollector(counters))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		log.Info("metrics server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics server exited", "error", err)
		}
	}()
}
