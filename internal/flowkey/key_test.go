package flowkey

import "testing"

func TestLessOrdersByProtocolFirst(t *testing.T) {
	a := Key{Protocol: 6, SrcAddr: 10, DstAddr: 10, SrcPort: 1, DstPort: 1}
	b := Key{Protocol: 17, SrcAddr: 1, DstAddr: 1, SrcPort: 1, DstPort: 1}
	if !a.Less(b) {
		t.Fatalf("expected lower protocol to sort first regardless of addresses")
	}
	if b.Less(a) {
		t.Fatalf("Less should not be symmetric here")
	}
}

func TestLessFallsThroughTupleFields(t *testing.T) {
	base := Key{Protocol: 6, SrcAddr: 100, DstAddr: 100, SrcPort: 80, DstPort: 80}
	higherSrcAddr := base
	higherSrcAddr.SrcAddr = 101
	if !base.Less(higherSrcAddr) {
		t.Fatalf("expected lower src_addr to sort first when protocol ties")
	}

	higherDstPort := base
	higherDstPort.DstPort = 81
	if !base.Less(higherDstPort) {
		t.Fatalf("expected lower dst_port to sort first when everything else ties")
	}
}

func TestShardIsDeterministicAndNotSymmetric(t *testing.T) {
	k := Key{Protocol: 6, SrcAddr: 0x0A000001, DstAddr: 0x0A000002, SrcPort: 1234, DstPort: 80}
	reverse := Key{Protocol: 6, SrcAddr: k.DstAddr, DstAddr: k.SrcAddr, SrcPort: k.DstPort, DstPort: k.SrcPort}

	if Shard(k) != Shard(k) {
		t.Fatalf("Shard must be deterministic for the same key")
	}
	if Shard(k) == Shard(reverse) {
		t.Fatalf("expected a flow and its reverse direction to land in different shards")
	}
}

func TestShardStaysWithinRange(t *testing.T) {
	for _, k := range []Key{
		{Protocol: 1, SrcAddr: 0, DstAddr: 0, SrcPort: 0, DstPort: 0},
		{Protocol: 255, SrcAddr: 0xFFFFFFFF, DstAddr: 0xFFFFFFFF, SrcPort: 0xFFFF, DstPort: 0xFFFF},
	} {
		_ = Shard(k) // uint16 result is always within [0, ShardCount)
	}
	if ShardCount != 65536 {
		t.Fatalf("expected ShardCount=65536, got %d", ShardCount)
	}
}
