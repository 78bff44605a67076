// Package emit turns evicted flow summaries into outbound side effects:
// the primary JSON-over-UDP stream, the Dispatcher that fans a summary out
// to every sink, and the optional HTTP-forward sink. The pcap capture and
// file logging sinks live in internal/pcapdump and internal/output.
package emit

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/netflowd/netflowd/internal/flowstore"
)

// Document is the wire shape of one emitted flow summary.
type Document struct {
	SrcAddr      string         `json:"src_addr"`
	DstAddr      string         `json:"dst_addr"`
	Protocol     uint8          `json:"protocol"`
	SrcPort      uint16         `json:"src_port"`
	DstPort      uint16         `json:"dst_port"`
	TCPFlags     uint8          `json:"tcp_flags"`
	StartTime    int64          `json:"start_time"`
	EndTime      int64          `json:"end_time"`
	SourceCount  int            `json:"source_count"`
	SourceStats  []SourceStat   `json:"source_stats"`
}

// SourceStat is one exporter's contribution within a Document.
type SourceStat struct {
	FlowSource string `json:"flow_source"`
	SrcIfIndex uint16 `json:"src_int"`
	DstIfIndex uint16 `json:"dst_int"`
	NumPackets uint64 `json:"num_packets"`
	NumBytes   uint64 `json:"num_bytes"`
	NumFlows   uint64 `json:"num_flows"`
}

// ToDocument converts an evicted summary to its JSON wire shape.
func ToDocument(s *flowstore.Summary) Document {
	stats := make([]SourceStat, len(s.Sources))
	for i, src := range s.Sources {
		stats[i] = SourceStat{
			FlowSource: ipString(src.Exporter),
			SrcIfIndex: src.SrcIfIndex,
			DstIfIndex: src.DstIfIndex,
			NumPackets: src.Packets,
			NumBytes:   src.Bytes,
			NumFlows:   src.Flows,
		}
	}

	return Document{
		SrcAddr:     ipString(s.Key.SrcAddr),
		DstAddr:     ipString(s.Key.DstAddr),
		Protocol:    s.Key.Protocol,
		SrcPort:     s.Key.SrcPort,
		DstPort:     s.Key.DstPort,
		TCPFlags:    s.TCPFlags,
		StartTime:   s.StartTime.Unix(),
		EndTime:     s.EndTime.Unix(),
		SourceCount: s.SourceCount(),
		SourceStats: stats,
	}
}

func ipString(addr uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d",
		byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
}

// UDPEmitter sends one JSON document per evicted summary as a single UDP
// datagram — datagram boundaries coincide with object boundaries, so no
// framing or delimiter is needed.
type UDPEmitter struct {
	conn *net.UDPConn
}

// NewUDPEmitter dials dst as a connected UDP socket sourced from src (src
// may be nil to let the kernel choose).
func NewUDPEmitter(src, dst *net.UDPAddr) (*UDPEmitter, error) {
	conn, err := net.DialUDP("udp", src, dst)
	if err != nil {
		return nil, fmt.Errorf("emit: dial udp: %w", err)
	}
	return &UDPEmitter{conn: conn}, nil
}

// NewUDPEmitterFromConn wraps an already-dialed UDP socket, letting the
// caller apply its own socket buffer tuning (see internal/netudp) before
// handing the connection to the emitter.
func NewUDPEmitterFromConn(conn *net.UDPConn) *UDPEmitter {
	return &UDPEmitter{conn: conn}
}

// Emit serializes s and writes it as a single datagram. It satisfies
// Sink; a Dispatcher adapts it to the Janitor's func(*Summary) signature.
func (e *UDPEmitter) Emit(s *flowstore.Summary) error {
	body, err := json.Marshal(ToDocument(s))
	if err != nil {
		return fmt.Errorf("emit: marshal: %w", err)
	}
	_, err = e.conn.Write(body)
	return err
}

// Close releases the underlying socket.
func (e *UDPEmitter) Close() error {
	return e.conn.Close()
}
