package wiredecode

import (
	"time"

	"github.com/netflowd/netflowd/internal/record"
)

// ToFlow adapts a decoded wire Record into the store's normalized
// record.Flow, stamping it with the local receive time.
func (r Record) ToFlow(recvTime time.Time) *record.Flow {
	return &record.Flow{
		Exporter:   r.FlowSrc,
		RecvTime:   recvTime,
		SrcAddr:    r.SrcAddr,
		DstAddr:    r.DstAddr,
		SrcPort:    r.SrcPort,
		DstPort:    r.DstPort,
		Protocol:   r.Protocol,
		TCPFlags:   r.TCPFlags,
		SrcIfIndex: r.SrcIfIndex,
		DstIfIndex: r.DstIfIndex,
		Packets:    r.Packets,
		Bytes:      r.Bytes,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
	}
}
