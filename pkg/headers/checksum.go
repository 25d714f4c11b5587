package headers

import "firestige.xyz/stratum/pkg/packet"

// sum16 accumulates b as big-endian 16-bit words into acc, the running
// one's complement sum of RFC 1071. An odd trailing byte is padded with
// a zero low byte.
func sum16(acc uint32, b []byte) uint32 {
	for len(b) >= 2 {
		acc += uint32(b[0])<<8 | uint32(b[1])
		b = b[2:]
	}
	if len(b) == 1 {
		acc += uint32(b[0]) << 8
	}
	return acc
}

// foldSum folds the carries and complements the accumulated sum.
func foldSum(acc uint32) uint16 {
	for acc>>16 != 0 {
		acc = acc&0xFFFF + acc>>16
	}
	return ^uint16(acc)
}

// internetChecksum is the RFC 1071 checksum of b.
func internetChecksum(b []byte) uint16 {
	return foldSum(sum16(0, b))
}

// byteser is the record-level field byte access the transport checksums
// need from the network header.
type byteser interface {
	Bytes(name string) ([]byte, error)
}

// pseudoHeaderSum accumulates the IPv4 pseudo-header covering self's
// segment: source and destination address, protocol and segment length,
// taken from the nearest ipv4 header above self in the stack. ok is
// false when the packet has no such header.
func pseudoHeaderSum(p *packet.Packet, self packet.Header, proto uint8, segLen int) (uint32, bool) {
	if p == nil {
		return 0, false
	}
	var ip byteser
	for _, h := range p.Headers() {
		if h == self {
			break
		}
		if h.ProtocolName() == "ipv4" {
			ip, _ = h.(byteser)
		}
	}
	if ip == nil {
		return 0, false
	}
	src, err := ip.Bytes("src")
	if err != nil {
		return 0, false
	}
	dst, err := ip.Bytes("dst")
	if err != nil {
		return 0, false
	}
	acc := sum16(0, src)
	acc = sum16(acc, dst)
	acc += uint32(proto)
	acc += uint32(segLen)
	return acc, true
}
