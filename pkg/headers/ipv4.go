package headers

import (
	"firestige.xyz/stratum/pkg/record"
	"firestige.xyz/stratum/pkg/wire"
)

// IPProtocols maps symbolic names to the protocol numbers the bundled
// bindings dispatch on.
var IPProtocols = map[string]uint64{
	"icmp": 1,
	"tcp":  6,
	"udp":  17,
	"sctp": 132,
}

// IPv4 is an RFC 791 header. The options field's extent follows the
// decoded ihl; total length derives from the whole datagram via
// CalcLength, and CalcChecksum covers the header including options.
type IPv4 struct {
	*record.Record
}

// NewIPv4 returns an IPv4 header with the usual construction defaults:
// version 4, five 32-bit words, TTL 64.
func NewIPv4() *IPv4 {
	r := record.New("ipv4",
		record.Group("verihl", 8,
			record.Sub("version", 4, record.Default(4)),
			record.Sub("ihl", 4, record.Default(5)),
		),
		record.U8("tos"),
		record.U16("length", record.Default(20)),
		record.U16("id"),
		record.Group("frag", 16,
			record.Sub("flags", 3),
			record.Sub("fragoff", 13),
		),
		record.U8("ttl", record.Default(64)),
		record.U8("protocol", record.Enum(IPProtocols)),
		record.U16("checksum"),
		record.Custom("src", func() wire.Field { return NewIPv4Field() }),
		record.Custom("dst", func() wire.Field { return NewIPv4Field() }),
		record.Bytes("options", record.LengthBy(func(r *record.Record) uint64 {
			ihl, err := r.Uint("ihl")
			if err != nil || ihl < 5 {
				return 0
			}
			return (ihl - 5) * 4
		})),
	)
	r.WithCalcLength("length", func(r *record.Record) uint64 {
		return uint64(r.Size())
	})
	return &IPv4{r}
}

// CalcChecksum recomputes the header checksum over the header fields
// including options, with the checksum field itself zeroed first.
func (h *IPv4) CalcChecksum() {
	if err := h.SetUint("checksum", 0); err != nil {
		return
	}
	sum := internetChecksum(h.SerializeFields(nil))
	_ = h.SetUint("checksum", uint64(sum))
}
