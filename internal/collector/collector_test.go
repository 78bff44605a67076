package collector

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/netflowd/netflowd/internal/flowstore"
)

func buildV5Datagram(flowCount int, fill func(rec []byte)) []byte {
	const headerLen = 24
	const recordLen = 48
	buf := make([]byte, headerLen+flowCount*recordLen)
	binary.BigEndian.PutUint16(buf[0:2], 5)
	binary.BigEndian.PutUint16(buf[2:4], uint16(flowCount))
	binary.BigEndian.PutUint32(buf[4:8], 1_000_000)
	binary.BigEndian.PutUint32(buf[8:12], 1_700_000_000)
	for i := 0; i < flowCount; i++ {
		fill(buf[headerLen+i*recordLen : headerLen+(i+1)*recordLen])
	}
	return buf
}

func TestCollectorIngestsDatagramEndToEnd(t *testing.T) {
	evicted := make(chan *flowstore.Summary, 1)
	c, err := New(Config{
		ListenAddr:    "127.0.0.1:0",
		BufferSize:    65536,
		SweepInterval: 20 * time.Millisecond,
		MinFlowAge:    10 * time.Millisecond,
		MaxFlowAge:    time.Hour,
		StatsRate:     0,
	}, func(s *flowstore.Summary) {
		select {
		case evicted <- s:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Run(ctx)
	defer c.Stop()

	// Wait for the listener to bind by polling c.conn, which Run sets once
	// the listen socket is open.
	var addr *net.UDPAddr
	for i := 0; i < 50; i++ {
		if c.conn != nil {
			addr = c.conn.LocalAddr().(*net.UDPAddr)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if addr == nil {
		t.Fatalf("collector did not bind a listen socket in time")
	}

	payload := buildV5Datagram(1, func(rec []byte) {
		binary.BigEndian.PutUint32(rec[0:4], 0x0A000001)
		binary.BigEndian.PutUint32(rec[4:8], 0x0A000002)
		binary.BigEndian.PutUint16(rec[32:34], 1234)
		binary.BigEndian.PutUint16(rec[34:36], 80)
		rec[38] = 6
		binary.BigEndian.PutUint32(rec[16:20], 5)
		binary.BigEndian.PutUint32(rec[20:24], 500)
	})

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case s := <-evicted:
		if s.Key.SrcAddr != 0x0A000001 || s.Key.DstAddr != 0x0A000002 {
			t.Fatalf("unexpected evicted summary key: %+v", s.Key)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the datagram to be ingested and evicted")
	}
}
