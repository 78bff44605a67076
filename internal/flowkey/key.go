// Package flowkey defines flow identity: the five-tuple that two records
// must share to be considered the same flow, its lexicographic ordering,
// and the hash used to route a key to one of the sharded flow tables.
package flowkey

// Key is a flow's identity. Two records with equal keys are the same flow;
// interface indices, flags, counts and times are not part of identity.
type Key struct {
	Protocol uint8
	SrcAddr  uint32
	DstAddr  uint32
	SrcPort  uint16
	DstPort  uint16
}

// Less orders keys lexicographically by
// (protocol, src_addr, dst_addr, src_port, dst_port).
func (k Key) Less(o Key) bool {
	if k.Protocol != o.Protocol {
		return k.Protocol < o.Protocol
	}
	if k.SrcAddr != o.SrcAddr {
		return k.SrcAddr < o.SrcAddr
	}
	if k.DstAddr != o.DstAddr {
		return k.DstAddr < o.DstAddr
	}
	if k.SrcPort != o.SrcPort {
		return k.SrcPort < o.SrcPort
	}
	return k.DstPort < o.DstPort
}

// ShardCount is the number of independently locked shards in the flow
// index.
const ShardCount = 65536

func rol16(x uint16, n uint) uint16 {
	n &= 15
	return (x << n) | (x >> (16 - n))
}

// Shard computes the target shard for a key: it mixes all five identity
// fields and is not symmetric between source and destination (a flow and
// its reverse land in different shards by design).
func Shard(k Key) uint16 {
	h := uint16(k.SrcAddr&0xFFFF) ^
		rol16(uint16(k.SrcAddr>>16), 7) ^
		uint16(k.DstAddr&0xFFFF) ^
		rol16(uint16(k.DstAddr>>16), 13) ^
		k.SrcPort ^
		rol16(k.DstPort, 3) ^
		uint16(k.Protocol)
	return h
}
