// Package collector wires together the listen socket, the wire decoder,
// the flow store, and the janitor into the passive NetFlow collector's
// main run loop, following a receive-loop-plus-stats-ticker shape.
package collector

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/netflowd/netflowd/internal/exclude"
	"github.com/netflowd/netflowd/internal/flowstore"
	"github.com/netflowd/netflowd/internal/logger"
	"github.com/netflowd/netflowd/internal/netudp"
	"github.com/netflowd/netflowd/internal/stats"
	"github.com/netflowd/netflowd/internal/wiredecode"
)

// Config carries the collector's runtime settings.
type Config struct {
	ListenAddr   string
	BufferSize   int
	RecvBufBytes int

	SweepInterval time.Duration
	MinFlowAge    time.Duration
	MaxFlowAge    time.Duration
	StatsRate     time.Duration

	Exclusions []ExclusionRange
}

// ExclusionRange is one configured closed IPv4 address interval to drop
// before a flow ever reaches the store.
type ExclusionRange struct {
	Start uint32
	End   uint32
}

// Collector owns the UDP receive loop, the flow store, and the janitor.
type Collector struct {
	cfg   Config
	conn  *net.UDPConn
	store *flowstore.Store
	stats *stats.Counters
	log   *logger.Logger

	janitor *flowstore.Janitor

	datagramsReceived uint64
}

// New builds a Collector. dispatch receives every evicted summary; pass
// an emit.Dispatcher wired with whatever sinks are enabled.
func New(cfg Config, dispatch func(*flowstore.Summary), log *logger.Logger) (*Collector, error) {
	excluded := exclude.New()
	for _, r := range cfg.Exclusions {
		if err := excluded.Add(r.Start, r.End); err != nil {
			return nil, fmt.Errorf("collector: exclusion range %d-%d: %w", r.Start, r.End, err)
		}
	}

	counters := stats.New()
	store := flowstore.New(excluded, counters)

	c := &Collector{
		cfg:   cfg,
		store: store,
		stats: counters,
		log:   log,
	}
	c.janitor = flowstore.NewJanitor(store, cfg.SweepInterval, cfg.MinFlowAge, cfg.MaxFlowAge, dispatch, log)
	return c, nil
}

// Run opens the listen socket and blocks, receiving and ingesting
// datagrams, until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	conn, err := netudp.ListenWithBuffer(c.cfg.ListenAddr, c.cfg.RecvBufBytes, c.log)
	if err != nil {
		return fmt.Errorf("collector: %w", err)
	}
	c.conn = conn

	if c.log != nil {
		c.log.Info("collector listening", "addr", c.cfg.ListenAddr, "buffer_size", c.cfg.BufferSize)
	}

	go c.janitor.Run(ctx)
	go c.reportStats(ctx)

	buf := make([]byte, c.cfg.BufferSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			c.conn.SetReadDeadline(time.Now().Add(time.Second))

			n, peer, err := c.conn.ReadFromUDP(buf)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if c.log != nil {
					c.log.Error("read failed", "error", err)
				}
				continue
			}

			c.datagramsReceived++
			c.ingestDatagram(buf[:n], peer)
		}
	}
}

func (c *Collector) ingestDatagram(payload []byte, peer *net.UDPAddr) {
	peerAddr := ipToUint32(peer.IP)
	recvTime := time.Now()

	records, err := wiredecode.Decode(payload, peerAddr)
	if err != nil {
		if c.log != nil {
			c.log.Debug("failed to decode datagram", "error", err, "peer", peer.String())
		}
		return
	}

	for _, rec := range records {
		c.store.Ingest(rec.ToFlow(recvTime))
	}
}

// Counters exposes the collector's statistics, e.g. for a Prometheus
// collector to read from.
func (c *Collector) Counters() *stats.Counters {
	return c.stats
}

// Stop closes the listen socket.
func (c *Collector) Stop() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Collector) reportStats(ctx context.Context) {
	if c.cfg.StatsRate <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.StatsRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.log == nil {
				continue
			}
			proto := c.stats.ProtoFlows()
			c.log.Info("=== flow statistics ===",
				"datagrams_received", c.datagramsReceived,
				"total_flows", c.stats.TotalFlows.Load(),
				"new_flows", c.stats.NewFlows.Load(),
				"dup_flows", c.stats.DupFlows.Load(),
				"excluded_flows", c.stats.ExcludedFlows.Load(),
				"current_flows", c.stats.CurrentFlows.Load(),
				"protocols", proto,
			)
		}
	}
}

func ipToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
}
