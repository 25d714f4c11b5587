package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/stratum/pkg/record"
)

// abcRegistry wires the minimal protocol graph used across the engine
// tests: A carries a 1-byte kind, B a 4-byte tag, C a 1-byte next plus
// a 2-byte id.
func abcRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("A", func() Header { return record.New("A", record.U8("kind")) })
	reg.Register("B", func() Header { return record.New("B", record.U32("tag")) })
	reg.Register("C", func() Header {
		return record.New("C", record.U8("next"), record.U16("id"))
	})
	reg.Bind("A", "B", "kind", 7)
	return reg
}

func TestAddAndSerialize(t *testing.T) {
	p := NewWith(abcRegistry())
	require.NoError(t, p.Add("A", nil))
	require.NoError(t, p.Add("B", map[string]any{"tag": 0x11223344}))

	// Linking B under A writes A's discriminator to the binding value.
	out := p.Serialize()
	assert.Equal(t, []byte{0x07, 0x11, 0x22, 0x33, 0x44}, out)
}

func TestParseWithoutHint(t *testing.T) {
	reg := abcRegistry()
	p, err := reg.Parse([]byte{0x07, 0x11, 0x22, 0x33, 0x44}, "")
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())

	a, ok := p.Header("A", 0)
	require.True(t, ok)
	kind, err := a.Uint("kind")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), kind)

	b, ok := p.Header("B", 0)
	require.True(t, ok)
	tag, err := b.Uint("tag")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x11223344), tag)

	// Re-serialization reproduces the wire bytes.
	assert.Equal(t, []byte{0x07, 0x11, 0x22, 0x33, 0x44}, p.Serialize())
}

func TestParseStopsWhenNoBindingMatches(t *testing.T) {
	reg := abcRegistry()
	// kind 5 matches no binding: the trailing bytes stay as A's raw body.
	data := []byte{0x05, 0xDE, 0xAD, 0xBE, 0xEF}
	p, err := reg.Parse(data, "")
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, p.Headers()[0].Body())
	assert.Equal(t, data, p.Serialize())
}

func TestParseBindingDeterminism(t *testing.T) {
	reg := abcRegistry()
	reg.Bind("A", "C", "kind", 9)

	p, err := reg.Parse([]byte{0x09, 0x00, 0x00, 0x42}, "")
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, "C", p.Headers()[1].ProtocolName())
}

func TestParseFirstRegisteredBindingWins(t *testing.T) {
	reg := abcRegistry()
	// A second edge on the same discriminator value must lose to the
	// earlier A -> B edge.
	reg.Bind("A", "C", "kind", 7)

	p, err := reg.Parse([]byte{0x07, 0x11, 0x22, 0x33, 0x44}, "")
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, "B", p.Headers()[1].ProtocolName())
}

func TestParsePredicateBinding(t *testing.T) {
	reg := abcRegistry()
	reg.BindWhen("A", "C", "kind", 0x80, func(v uint64) bool { return v >= 0x80 })

	p, err := reg.Parse([]byte{0xC0, 0x01, 0x00, 0x05}, "")
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, "C", p.Headers()[1].ProtocolName())
}

func TestParseHint(t *testing.T) {
	reg := abcRegistry()
	// B never qualifies for the heuristic (no outgoing bindings), the
	// hint forces it.
	p, err := reg.Parse([]byte{0x11, 0x22, 0x33, 0x44}, "B")
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "B", p.Headers()[0].ProtocolName())
}

func TestParseUnknownHint(t *testing.T) {
	reg := abcRegistry()
	_, err := reg.Parse([]byte{0x01}, "ghost")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestParseDegradesToRaw(t *testing.T) {
	reg := NewRegistry()
	reg.Register("big", func() Header { return record.New("big", record.U64("x")) })
	reg.Bind("big", "big", "x", 1)

	// Too short for any candidate: parse must hand back a typed
	// placeholder, never an error.
	data := []byte{0x01, 0x02}
	p, err := reg.Parse(data, "")
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, RawName, p.Headers()[0].ProtocolName())
	assert.Equal(t, data, p.Serialize())
}

func TestParseHintedStructuralFailureDegradesToRaw(t *testing.T) {
	reg := abcRegistry()
	p, err := reg.Parse([]byte{0x01}, "B")
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, RawName, p.Headers()[0].ProtocolName())
}

func TestAddErrors(t *testing.T) {
	p := NewWith(abcRegistry())
	assert.ErrorIs(t, p.Add("ghost", nil), ErrUnknownProtocol)

	require.NoError(t, p.Add("B", nil))
	// No binding B -> A is registered.
	err := p.Add("A", nil)
	assert.ErrorIs(t, err, ErrNoBinding)

	// Recoverable: register the missing edge and retry.
	p.reg.Bind("B", "A", "tag", 1)
	assert.NoError(t, p.Add("A", nil))
}

func TestEncapsulate(t *testing.T) {
	reg := abcRegistry()
	outer := NewWith(reg)
	require.NoError(t, outer.Add("A", nil))

	inner := NewWith(reg)
	require.NoError(t, inner.Add("B", map[string]any{"tag": 0x01020304}))

	require.NoError(t, outer.Encapsulate(inner))
	assert.Equal(t, 2, outer.Len())
	assert.Equal(t, 0, inner.Len(), "headers move, they are not shared")
	assert.Equal(t, []byte{0x07, 0x01, 0x02, 0x03, 0x04}, outer.Serialize())
}

func TestEncapsulateWithoutBindingFails(t *testing.T) {
	reg := abcRegistry()
	outer := NewWith(reg)
	require.NoError(t, outer.Add("B", nil))

	inner := NewWith(reg)
	require.NoError(t, inner.Add("C", nil))

	assert.ErrorIs(t, outer.Encapsulate(inner), ErrNoBinding)
	assert.Equal(t, 1, inner.Len(), "failed encapsulation must not move headers")
}

func stackABC(t *testing.T, reg *Registry) *Packet {
	t.Helper()
	reg.Bind("B", "C", "tag", 3)
	p := NewWith(reg)
	require.NoError(t, p.Add("A", nil))
	require.NoError(t, p.Add("B", nil))
	require.NoError(t, p.Add("C", map[string]any{"id": 0x5566}))
	return p
}

func TestDecapsulateMiddle(t *testing.T) {
	reg := abcRegistry()
	reg.Bind("A", "C", "kind", 9)
	p := stackABC(t, reg)

	require.NoError(t, p.Decapsulate("B"))
	require.Equal(t, 2, p.Len())

	// A's discriminator is rewritten to the A -> C edge; C's bytes are
	// untouched.
	assert.Equal(t, []byte{0x09, 0x00, 0x55, 0x66}, p.Serialize())
}

func TestDecapsulateWithoutSeamBindingFails(t *testing.T) {
	reg := abcRegistry()
	p := stackABC(t, reg)
	before := p.Serialize()

	err := p.Decapsulate("B")
	assert.ErrorIs(t, err, ErrNoBinding)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, before, p.Serialize(), "failed decapsulation must not mutate the stack")
}

func TestDecapsulateTail(t *testing.T) {
	reg := abcRegistry()
	p := stackABC(t, reg)

	require.NoError(t, p.Decapsulate("C"))
	require.Equal(t, 2, p.Len())
	assert.Nil(t, p.Headers()[1].Body(), "removed tail leaves nothing behind")
}

func TestDecapsulateUnknownHeader(t *testing.T) {
	p := NewWith(abcRegistry())
	require.NoError(t, p.Add("A", nil))
	assert.ErrorIs(t, p.Decapsulate("B"), ErrUnknownProtocol)
}

// calcHeader records the order of length/checksum recomputation.
type calcHeader struct {
	*record.Record
	trace *[]string
}

func (h *calcHeader) CalcLength() {
	*h.trace = append(*h.trace, "len:"+h.ProtocolName())
}

func (h *calcHeader) CalcChecksum() {
	*h.trace = append(*h.trace, "sum:"+h.ProtocolName())
}

func TestCalcOrderContract(t *testing.T) {
	var trace []string
	reg := NewRegistry()
	reg.Register("outer", func() Header {
		return &calcHeader{record.New("outer", record.U8("kind")), &trace}
	})
	reg.Register("inner", func() Header {
		return &calcHeader{record.New("inner", record.U8("x")), &trace}
	})
	reg.Bind("outer", "inner", "kind", 1)

	p := NewWith(reg)
	require.NoError(t, p.Add("outer", nil))
	require.NoError(t, p.Add("inner", nil))

	p.CalcLength()
	p.CalcChecksum()

	// Lengths head to tail, checksums tail to head.
	assert.Equal(t, []string{"len:outer", "len:inner", "sum:inner", "sum:outer"}, trace)
}

// awareHeader checks that the engine hands stack-spanning headers their
// owning packet.
type awareHeader struct {
	*record.Record
	pkt *Packet
}

func (h *awareHeader) SetPacket(p *Packet) { h.pkt = p }

func TestPacketAwareHeadersGetBackReference(t *testing.T) {
	reg := NewRegistry()
	var captured *awareHeader
	reg.Register("aw", func() Header {
		captured = &awareHeader{Record: record.New("aw", record.U8("x"))}
		return captured
	})

	p := NewWith(reg)
	require.NoError(t, p.Add("aw", nil))
	assert.Same(t, p, captured.pkt)
}

func TestHeaderLookupByInstance(t *testing.T) {
	reg := NewRegistry()
	reg.Register("h", func() Header { return record.New("h", record.U8("x")) })
	reg.Bind("h", "h", "x", 1)

	p := NewWith(reg)
	require.NoError(t, p.Add("h", map[string]any{"x": 1}))
	require.NoError(t, p.Add("h", map[string]any{"x": 2}))

	second, ok := p.Header("h", 1)
	require.True(t, ok)
	v, err := second.Uint("x")
	require.NoError(t, err)
	// Add rewrote the first instance's discriminator, not the second's.
	assert.Equal(t, uint64(2), v)

	_, ok = p.Header("h", 2)
	assert.False(t, ok)
}
