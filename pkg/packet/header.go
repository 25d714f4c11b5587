package packet

import "firestige.xyz/stratum/pkg/record"

// Header is the capability a type needs to participate in a packet
// stack. *record.Record implements it; protocol definitions usually
// embed one and add their own checksum or length hooks on top.
type Header interface {
	// ProtocolName identifies the header class in the registry.
	ProtocolName() string
	// Decode reads the header's fields from b and claims the remainder
	// as its raw body.
	Decode(b []byte) error
	// Serialize appends the header's fields followed by its body, raw
	// or cascaded through the next header.
	Serialize(dst []byte) []byte
	// Size reports the full serialized length including the body.
	Size() int

	// Uint and SetUint access discriminator fields by name.
	Uint(field string) (uint64, error)
	SetUint(field string, v uint64) error
	// Set stores a value of flexible type (integer, bytes, enum symbol).
	Set(field string, v any) error

	// Body management: raw trailing bytes or the next header.
	Body() []byte
	SetBody(b []byte)
	SetPayload(p record.Payload)
}

// LengthCalculator is implemented by headers that derive a length field
// from their current content. Invoked by Packet.CalcLength, head first.
type LengthCalculator interface {
	CalcLength()
}

// ChecksumCalculator is implemented by headers that carry a checksum.
// Invoked by Packet.CalcChecksum, tail first, so inner content is final
// when outer checksums cover it.
type ChecksumCalculator interface {
	CalcChecksum()
}

// PacketAware is implemented by headers whose computations span the
// stack, such as transport checksums covering a pseudo-header taken
// from the network layer. The engine hands them their owning packet
// when they join it.
type PacketAware interface {
	SetPacket(p *Packet)
}
