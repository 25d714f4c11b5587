package headers

import (
	"fmt"

	"firestige.xyz/stratum/pkg/packet"
	"firestige.xyz/stratum/pkg/record"
	"firestige.xyz/stratum/pkg/wire"
)

// TCPOptionKinds maps option names to their kind values.
var TCPOptionKinds = map[string]uint64{
	"eol":    0,
	"nop":    1,
	"mss":    2,
	"ws":     3,
	"sackok": 4,
	"ts":     8,
}

var tcpOptions = newTCPOptionRegistry()

func newTCPOptionRegistry() *record.TLVRegistry {
	spec := record.TLVSpec{
		Name:   "tcp.opt",
		Type:   func() wire.Field { return wire.NewUint8() },
		Length: func() wire.Field { return wire.NewUint8() },
		// The option length counts the kind and length octets too.
		Counts: []string{"type", "length", "value"},
		Enum:   TCPOptionKinds,
	}
	reg := spec.NewRegistry()
	reg.Register(spec.Derive("tcp.opt.mss", 2, func() wire.Field { return wire.NewUint16() }))
	reg.Register(spec.Derive("tcp.opt.ws", 3, func() wire.Field { return wire.NewUint8() }))
	reg.Register(spec.Derive("tcp.opt.ts", 8, nil))
	return reg
}

// newTCPSingleOption covers the kind-only options. EOL and NOP carry no
// length or value octet.
func newTCPSingleOption(name string, kind uint64) *record.Record {
	return record.New(name,
		record.U8("type", record.Default(kind), record.Enum(TCPOptionKinds)),
	)
}

func newTCPOptionSeq() *record.Sequence {
	// The option area must fill the words dataoff claims, so the
	// sequence pads itself to a 32-bit boundary.
	return record.NewSequence(
		record.PadTo(4),
		record.Polymorphic(tcpOptions.Peek, func(kind uint64) record.Element {
			switch kind {
			case 0:
				return newTCPSingleOption("tcp.opt.eol", 0)
			case 1:
				return newTCPSingleOption("tcp.opt.nop", 1)
			default:
				return tcpOptions.New(kind)
			}
		}),
	)
}

// TCP is an RFC 9293 header. Options decode as a kind/length/value
// sequence with known kinds dispatched to dedicated layouts.
type TCP struct {
	*record.Record
	pkt *packet.Packet
}

// NewTCP returns a TCP header with a data offset of five words and no
// options.
func NewTCP() *TCP {
	r := record.New("tcp",
		record.U16("sport"),
		record.U16("dport"),
		record.U32("seq"),
		record.U32("ack"),
		record.Group("off", 16,
			record.Sub("dataoff", 4, record.Default(5)),
			record.Sub("reserved", 3),
			record.Sub("ns", 1),
			record.Sub("cwr", 1),
			record.Sub("ece", 1),
			record.Sub("urg", 1),
			record.Sub("ackf", 1),
			record.Sub("psh", 1),
			record.Sub("rst", 1),
			record.Sub("syn", 1),
			record.Sub("fin", 1),
		),
		record.U16("window"),
		record.U16("checksum"),
		record.U16("urgptr"),
		record.List("options", newTCPOptionSeq,
			record.LengthBy(func(r *record.Record) uint64 {
				off, err := r.Uint("dataoff")
				if err != nil || off <= 5 {
					return 0
				}
				return (off - 5) * 4
			})),
	)
	r.WithCalcLength("dataoff", func(r *record.Record) uint64 {
		opts, err := r.Sequence("options")
		if err != nil {
			return 5
		}
		return 5 + uint64(opts.Size()+3)/4
	})
	return &TCP{Record: r}
}

// SetPacket receives the owning packet for pseudo-header access.
func (h *TCP) SetPacket(p *packet.Packet) { h.pkt = p }

// Options returns the option sequence for direct manipulation.
func (h *TCP) Options() *record.Sequence {
	seq, err := h.Sequence("options")
	if err != nil {
		return nil
	}
	return seq
}

// AddOption appends a registered option by name, returning the option
// record so the caller can fill its value.
func (h *TCP) AddOption(name string) (*record.Record, error) {
	kind, ok := TCPOptionKinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: tcp option %q", record.ErrUnknownEnum, name)
	}
	var opt *record.Record
	switch kind {
	case 0, 1:
		opt = newTCPSingleOption("tcp.opt."+name, kind)
	default:
		opt = tcpOptions.New(kind)
		// Kinds without a registered subtype come back as the base
		// layout, whose type field carries no default.
		if err := opt.SetUint("type", kind); err != nil {
			return nil, err
		}
	}
	h.Options().Append(opt)
	return opt, nil
}

// CalcChecksum recomputes the segment checksum over the IPv4
// pseudo-header and the serialized segment. Without an enclosing IPv4
// header the field is left zeroed.
func (h *TCP) CalcChecksum() {
	if err := h.SetUint("checksum", 0); err != nil {
		return
	}
	seg := h.Serialize(nil)
	acc, ok := pseudoHeaderSum(h.pkt, h, 6, len(seg))
	if !ok {
		return
	}
	_ = h.SetUint("checksum", uint64(foldSum(sum16(acc, seg))))
}
