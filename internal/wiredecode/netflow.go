// Package wiredecode turns a raw NetFlow v5 or v7 UDP datagram into the
// normalized record.Flow values the collector ingests. It knows nothing
// about flow identity, merging, or storage — only wire bytes.
package wiredecode

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	v5HeaderLen = 24
	v5RecordLen = 48

	v7HeaderLen = 24
	v7RecordLen = 52
)

// ErrShortDatagram is returned when a datagram is too small to hold a
// version tag, or shorter than the header of the version it names.
var ErrShortDatagram = fmt.Errorf("wiredecode: datagram too short to contain a NetFlow header")

// ErrUnknownVersion is returned when the first two bytes name a version
// this decoder does not understand.
type ErrUnknownVersion uint16

func (e ErrUnknownVersion) Error() string {
	return fmt.Sprintf("wiredecode: unsupported NetFlow version %d", uint16(e))
}

// ErrSizeMismatch is returned when the datagram length does not equal
// header + flow_count*record_size, a sanity check performed before
// trusting a single byte of the payload.
type ErrSizeMismatch struct {
	Version   uint16
	FlowCount int
	Got, Want int
}

func (e ErrSizeMismatch) Error() string {
	return fmt.Sprintf("wiredecode: v%d datagram size mismatch: flow_count=%d got=%d want=%d",
		e.Version, e.FlowCount, e.Got, e.Want)
}

// Record is one decoded flow record, already in host byte order and with
// its start/end times resolved to wall-clock. Decode sets FlowSrc, the
// exporter; the record carries no receive time, which ToFlow adds when it
// converts the record to a record.Flow.
type Record struct {
	FlowSrc uint32 // exporter: peer address for v5, per-record override for v7

	SrcAddr uint32
	DstAddr uint32
	SrcPort uint16
	DstPort uint16

	SrcIfIndex uint16
	DstIfIndex uint16

	Protocol uint8
	TCPFlags uint8

	Packets uint64
	Bytes   uint64

	StartTime time.Time
	EndTime   time.Time
}

// Decode parses a raw NetFlow v5 or v7 datagram. peerAddr is the source
// address of the UDP packet (host byte order), used as the exporter
// identity for v5 and as the fallback for v7 records that carry no
// flow_src override.
func Decode(payload []byte, peerAddr uint32) ([]Record, error) {
	if len(payload) < 2 {
		return nil, ErrShortDatagram
	}

	version := binary.BigEndian.Uint16(payload[0:2])
	switch version {
	case 5:
		return decodeV5(payload, peerAddr)
	case 7:
		return decodeV7(payload, peerAddr)
	default:
		return nil, ErrUnknownVersion(version)
	}
}

func decodeV5(payload []byte, peerAddr uint32) ([]Record, error) {
	if len(payload) < v5HeaderLen {
		return nil, ErrShortDatagram
	}

	flowCount := int(binary.BigEndian.Uint16(payload[2:4]))
	uptime := binary.BigEndian.Uint32(payload[4:8])
	unixSec := binary.BigEndian.Uint32(payload[8:12])

	want := v5HeaderLen + flowCount*v5RecordLen
	if len(payload) != want {
		return nil, ErrSizeMismatch{Version: 5, FlowCount: flowCount, Got: len(payload), Want: want}
	}

	records := make([]Record, flowCount)
	for i := 0; i < flowCount; i++ {
		b := payload[v5HeaderLen+i*v5RecordLen : v5HeaderLen+(i+1)*v5RecordLen]

		start := binary.BigEndian.Uint32(b[24:28])
		end := binary.BigEndian.Uint32(b[28:32])

		records[i] = Record{
			FlowSrc:    peerAddr,
			SrcAddr:    binary.BigEndian.Uint32(b[0:4]),
			DstAddr:    binary.BigEndian.Uint32(b[4:8]),
			SrcIfIndex: binary.BigEndian.Uint16(b[12:14]),
			DstIfIndex: binary.BigEndian.Uint16(b[14:16]),
			Packets:    uint64(binary.BigEndian.Uint32(b[16:20])),
			Bytes:      uint64(binary.BigEndian.Uint32(b[20:24])),
			SrcPort:    binary.BigEndian.Uint16(b[32:34]),
			DstPort:    binary.BigEndian.Uint16(b[34:36]),
			TCPFlags:   b[37],
			Protocol:   b[38],
			StartTime:  uptimeToWallClock(unixSec, uptime, start),
			EndTime:    uptimeToWallClock(unixSec, uptime, end),
		}
	}
	return records, nil
}

func decodeV7(payload []byte, peerAddr uint32) ([]Record, error) {
	if len(payload) < v7HeaderLen {
		return nil, ErrShortDatagram
	}

	flowCount := int(binary.BigEndian.Uint16(payload[2:4]))
	uptime := binary.BigEndian.Uint32(payload[4:8])
	unixSec := binary.BigEndian.Uint32(payload[8:12])

	want := v7HeaderLen + flowCount*v7RecordLen
	if len(payload) != want {
		return nil, ErrSizeMismatch{Version: 7, FlowCount: flowCount, Got: len(payload), Want: want}
	}

	records := make([]Record, flowCount)
	for i := 0; i < flowCount; i++ {
		b := payload[v7HeaderLen+i*v7RecordLen : v7HeaderLen+(i+1)*v7RecordLen]

		start := binary.BigEndian.Uint32(b[24:28])
		end := binary.BigEndian.Uint32(b[28:32])

		flowSrc := binary.BigEndian.Uint32(b[48:52])
		if flowSrc == 0 {
			flowSrc = peerAddr
		}

		records[i] = Record{
			FlowSrc:    flowSrc,
			SrcAddr:    binary.BigEndian.Uint32(b[0:4]),
			DstAddr:    binary.BigEndian.Uint32(b[4:8]),
			SrcIfIndex: binary.BigEndian.Uint16(b[12:14]),
			DstIfIndex: binary.BigEndian.Uint16(b[14:16]),
			Packets:    uint64(binary.BigEndian.Uint32(b[16:20])),
			Bytes:      uint64(binary.BigEndian.Uint32(b[20:24])),
			SrcPort:    binary.BigEndian.Uint16(b[32:34]),
			DstPort:    binary.BigEndian.Uint16(b[34:36]),
			TCPFlags:   b[37],
			Protocol:   b[38],
			StartTime:  uptimeToWallClock(unixSec, uptime, start),
			EndTime:    uptimeToWallClock(unixSec, uptime, end),
		}
	}
	return records, nil
}

// uptimeToWallClock derives a wall-clock time from a router uptime
// marker: curtime - ((uptime - marker) / 1000), with the subtraction done
// in unsigned 32-bit space so a marker from before a router's uptime
// counter wrapped still resolves correctly.
func uptimeToWallClock(unixSec, uptime, marker uint32) time.Time {
	deltaMillis := uptime - marker
	seconds := int64(unixSec) - int64(deltaMillis/1000)
	return time.Unix(seconds, 0).UTC()
}
