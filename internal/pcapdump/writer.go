// Package pcapdump records the collector's OUTPUT stream — the JSON
// datagrams it emits for evicted flow summaries — as a replayable .pcap
// capture, synthesizing the Ethernet/IPv4/UDP frame those datagrams would
// have traveled in.
package pcapdump

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/netflowd/netflowd/internal/emit"
	"github.com/netflowd/netflowd/internal/flowstore"
)

// Writer records synthesized frames carrying emitted JSON documents to a
// rotating .pcap file, the same size/backup rotation scheme used by
// general-purpose raw packet capture writers.
type Writer struct {
	filename   string
	maxSizeMB  int
	maxBackups int

	srcMAC, dstMAC net.HardwareAddr
	srcIP, dstIP   net.IP
	srcPort        uint16
	dstPort        uint16

	file         *os.File
	writer       *pcapgo.Writer
	mu           sync.Mutex
	bytesWritten int64
}

// Config describes the synthetic link/network/transport addressing used
// to wrap each captured JSON datagram.
type Config struct {
	OutputFile string
	MaxSizeMB  int
	MaxBackups int
	SrcAddr    net.IP
	DstAddr    net.IP
	SrcPort    uint16
	DstPort    uint16
}

// NewWriter creates a pcapdump Writer per cfg.
func NewWriter(cfg Config) (*Writer, error) {
	w := &Writer{
		filename:   cfg.OutputFile,
		maxSizeMB:  cfg.MaxSizeMB,
		maxBackups: cfg.MaxBackups,
		srcMAC:     net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		dstMAC:     net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		srcIP:      cfg.SrcAddr.To4(),
		dstIP:      cfg.DstAddr.To4(),
		srcPort:    cfg.SrcPort,
		dstPort:    cfg.DstPort,
	}

	if err := w.rotate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Emit satisfies emit.Sink: it serializes s to the same JSON document the
// primary UDP emitter sends, wraps it in an Ethernet/IPv4/UDP frame, and
// appends it to the capture.
func (w *Writer) Emit(s *flowstore.Summary) error {
	doc := emit.ToDocument(s)
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("pcapdump: marshal document: %w", err)
	}
	frame, err := w.buildFrame(body)
	if err != nil {
		return err
	}
	return w.writePacket(frame, time.Now())
}

func (w *Writer) buildFrame(payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       w.srcMAC,
		DstMAC:       w.dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    w.srcIP,
		DstIP:    w.dstIP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(w.srcPort),
		DstPort: layers.UDPPort(w.dstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("pcapdump: set checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("pcapdump: serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *Writer) writePacket(data []byte, timestamp time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxSizeMB > 0 && w.bytesWritten > int64(w.maxSizeMB)*1024*1024 {
		if err := w.rotate(); err != nil {
			return fmt.Errorf("pcapdump: rotate file: %w", err)
		}
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     timestamp,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := w.writer.WritePacket(ci, data); err != nil {
		return fmt.Errorf("pcapdump: write packet: %w", err)
	}

	w.bytesWritten += int64(len(data))
	return nil
}

// Close closes the capture file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func (w *Writer) rotate() error {
	if w.file != nil {
		w.file.Close()
	}

	if w.maxBackups > 0 {
		for i := w.maxBackups - 1; i >= 0; i-- {
			oldName := w.backupName(i)
			newName := w.backupName(i + 1)

			if _, err := os.Stat(oldName); err == nil {
				if i == w.maxBackups-1 {
					os.Remove(oldName)
				} else {
					os.Rename(oldName, newName)
				}
			}
		}

		if _, err := os.Stat(w.filename); err == nil {
			os.Rename(w.filename, w.backupName(0))
		}
	}

	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("pcapdump: create file: %w", err)
	}

	writer := pcapgo.NewWriter(f)
	if err := writer.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return fmt.Errorf("pcapdump: write file header: %w", err)
	}

	w.file = f
	w.writer = writer
	w.bytesWritten = 0
	return nil
}

func (w *Writer) backupName(index int) string {
	if index == 0 {
		return w.filename + ".1"
	}
	return fmt.Sprintf("%s.%d", w.filename, index+1)
}
