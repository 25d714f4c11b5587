package headers

import (
	"firestige.xyz/stratum/pkg/packet"
	"firestige.xyz/stratum/pkg/record"
)

// UDP is an RFC 768 header. The length field covers header plus
// payload; the checksum covers the IPv4 pseudo-header and the whole
// segment, which is why the header needs its packet back-reference.
type UDP struct {
	*record.Record
	pkt *packet.Packet
}

// NewUDP returns a UDP header with the length defaulting to the bare
// header size.
func NewUDP() *UDP {
	r := record.New("udp",
		record.U16("sport"),
		record.U16("dport"),
		record.U16("length", record.Default(8)),
		record.U16("checksum"),
	)
	r.WithCalcLength("length", func(r *record.Record) uint64 {
		return uint64(r.Size())
	})
	return &UDP{Record: r}
}

// SetPacket receives the owning packet for pseudo-header access.
func (h *UDP) SetPacket(p *packet.Packet) { h.pkt = p }

// CalcChecksum recomputes the segment checksum. Without an enclosing
// IPv4 header the field is left zeroed, which RFC 768 permits. A
// computed zero is transmitted as 0xFFFF.
func (h *UDP) CalcChecksum() {
	if err := h.SetUint("checksum", 0); err != nil {
		return
	}
	seg := h.Serialize(nil)
	acc, ok := pseudoHeaderSum(h.pkt, h, 17, len(seg))
	if !ok {
		return
	}
	sum := foldSum(sum16(acc, seg))
	if sum == 0 {
		sum = 0xFFFF
	}
	_ = h.SetUint("checksum", uint64(sum))
}
