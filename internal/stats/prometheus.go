package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector adapts Counters to prometheus.Collector, the same
// pattern the retrieved netobserv-netobserv-agent flow tracer uses: plain
// struct fields wired to a registry rather than a package-level default
// collector, so multiple Counters instances (e.g. in tests) never clash
// on the global registry.
type PrometheusCollector struct {
	c *Counters

	totalFlows    *prometheus.Desc
	excludedFlows *prometheus.Desc
	newFlows      *prometheus.Desc
	dupFlows      *prometheus.Desc
	currentFlows  *prometheus.Desc
	flowPackets   *prometheus.Desc
	protoFlows    *prometheus.Desc
}

// NewPrometheusCollector wraps c for registration with a prometheus.Registerer.
func NewPrometheusCollector(c *Counters) *PrometheusCollector {
	ns := "netflowd"
	return &PrometheusCollector{
		c:             c,
		totalFlows:    prometheus.NewDesc(ns+"_flows_total", "Total flow records ingested.", nil, nil),
		excludedFlows: prometheus.NewDesc(ns+"_flows_excluded_total", "Flow records dropped by the exclusion set.", nil, nil),
		newFlows:      prometheus.NewDesc(ns+"_flows_new_total", "Flow records that created a new summary.", nil, nil),
		dupFlows:      prometheus.NewDesc(ns+"_flows_merged_total", "Flow records merged into an existing summary.", nil, nil),
		currentFlows:  prometheus.NewDesc(ns+"_flows_current", "Summaries currently tracked across all shards.", nil, nil),
		flowPackets:   prometheus.NewDesc(ns+"_datagrams_total", "NetFlow datagrams received.", nil, nil),
		protoFlows:    prometheus.NewDesc(ns+"_flows_new_by_protocol_total", "New flow summaries by IP protocol number.", []string{"protocol"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.totalFlows
	ch <- p.excludedFlows
	ch <- p.newFlows
	ch <- p.dupFlows
	ch <- p.currentFlows
	ch <- p.flowPackets
	ch <- p.protoFlows
}

// Collect implements prometheus.Collector.
func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(p.totalFlows, prometheus.CounterValue, float64(p.c.TotalFlows.Load()))
	ch <- prometheus.MustNewConstMetric(p.excludedFlows, prometheus.CounterValue, float64(p.c.ExcludedFlows.Load()))
	ch <- prometheus.MustNewConstMetric(p.newFlows, prometheus.CounterValue, float64(p.c.NewFlows.Load()))
	ch <- prometheus.MustNewConstMetric(p.dupFlows, prometheus.CounterValue, float64(p.c.DupFlows.Load()))
	ch <- prometheus.MustNewConstMetric(p.currentFlows, prometheus.GaugeValue, float64(p.c.CurrentFlows.Load()))
	ch <- prometheus.MustNewConstMetric(p.flowPackets, prometheus.CounterValue, float64(p.c.FlowPackets.Load()))

	for proto, n := range p.c.ProtoFlows() {
		ch <- prometheus.MustNewConstMetric(p.protoFlows, prometheus.CounterValue, float64(n), protoLabel(proto))
	}
}

func protoLabel(protocol uint8) string {
	switch protocol {
	case 1:
		return "icmp"
	case 6:
		return "tcp"
	case 17:
		return "udp"
	default:
		return itoa(protocol)
	}
}

func itoa(protocol uint8) string {
	const digits = "0123456789"
	if protocol == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for protocol > 0 {
		i--
		buf[i] = digits[protocol%10]
		protocol /= 10
	}
	return string(buf[i:])
}
