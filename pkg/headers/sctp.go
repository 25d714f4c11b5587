package headers

import (
	"hash/crc32"

	"firestige.xyz/stratum/pkg/packet"
	"firestige.xyz/stratum/pkg/record"
)

// SCTPChunkTypes maps chunk names to their type values.
var SCTPChunkTypes = map[string]uint64{
	"data":              0,
	"init":              1,
	"init_ack":          2,
	"sack":              3,
	"heartbeat":         4,
	"heartbeat_ack":     5,
	"abort":             6,
	"shutdown":          7,
	"shutdown_ack":      8,
	"error":             9,
	"cookie_echo":       10,
	"cookie_ack":        11,
	"shutdown_complete": 14,
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// NewSCTPChunk returns a generic chunk record. The length field counts
// the four-byte chunk header plus the value; on the wire each chunk is
// zero-padded to a four-byte boundary, which the sequence wrapper adds.
func NewSCTPChunk() *record.Record {
	r := record.New("sctp.chunk",
		record.U8("type", record.Enum(SCTPChunkTypes)),
		record.U8("flags"),
		record.U16("length", record.Default(4)),
		record.Bytes("value", record.LengthBy(func(r *record.Record) uint64 {
			lv, err := r.Uint("length")
			if err != nil || lv < 4 {
				return 0
			}
			return lv - 4
		})),
	)
	r.WithCalcLength("length", func(r *record.Record) uint64 {
		b, err := r.Bytes("value")
		if err != nil {
			return 4
		}
		return 4 + uint64(len(b))
	})
	return r
}

func newSCTPChunkSeq() *record.Sequence {
	return record.NewSequence(
		record.OfElement(func() record.Element {
			return record.Pad4(NewSCTPChunk())
		}),
	)
}

// SCTP is an RFC 9260 common header followed by a chunk list. The
// checksum is CRC-32c stored least significant byte first, the
// convention the kernel uses for its __le32 chunk checksum.
type SCTP struct {
	*record.Record
	pkt *packet.Packet
}

// NewSCTP returns an SCTP header with an empty chunk list.
func NewSCTP() *SCTP {
	r := record.New("sctp",
		record.U16("sport"),
		record.U16("dport"),
		record.U32("verification_tag"),
		record.U32LE("checksum"),
		record.List("chunks", newSCTPChunkSeq),
	)
	return &SCTP{Record: r}
}

// SetPacket receives the owning packet so the checksum can cover the
// chunks and any payload below.
func (h *SCTP) SetPacket(p *packet.Packet) { h.pkt = p }

// Chunks returns the chunk sequence for direct manipulation.
func (h *SCTP) Chunks() *record.Sequence {
	seq, err := h.Sequence("chunks")
	if err != nil {
		return nil
	}
	return seq
}

// AddChunk appends a zero-padded chunk of the named type and returns
// its record.
func (h *SCTP) AddChunk(name string) (*record.Record, error) {
	c := NewSCTPChunk()
	if err := c.Set("type", name); err != nil {
		return nil, err
	}
	h.Chunks().Append(record.Pad4(c))
	return c, nil
}

// CalcChecksum recomputes the CRC-32c over the serialized header and
// everything below it, with the checksum field read as zero.
func (h *SCTP) CalcChecksum() {
	if err := h.SetUint("checksum", 0); err != nil {
		return
	}
	sum := crc32.Checksum(h.Serialize(nil), castagnoli)
	_ = h.SetUint("checksum", uint64(sum))
}
