// Package record defines the normalized flow record that decoders hand to
// the collector, independent of the wire format (NetFlow v5 or v7) that
// produced it.
package record

import "time"

// Flow is one normalized flow record. Addresses and ports are host byte
// order; Exporter is the address of the router that emitted the NetFlow
// datagram this record came from.
type Flow struct {
	Exporter uint32
	RecvTime time.Time

	SrcAddr uint32
	DstAddr uint32
	SrcPort uint16
	DstPort uint16

	Protocol uint8
	TCPFlags uint8

	SrcIfIndex uint16
	DstIfIndex uint16

	Packets uint64
	Bytes   uint64

	StartTime time.Time
	EndTime   time.Time
}
