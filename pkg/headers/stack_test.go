package headers

import (
	"testing"

	"firestige.xyz/stratum/pkg/packet"
	"github.com/stretchr/testify/require"
)

func newStackRegistry() *packet.Registry {
	reg := packet.NewRegistry()
	RegisterAll(reg)
	return reg
}

func buildUDPPacket(t *testing.T, reg *packet.Registry) *packet.Packet {
	t.Helper()
	p := packet.NewWith(reg)
	require.NoError(t, p.Add("eth", map[string]any{
		"dst": "02:00:00:00:00:02",
		"src": "02:00:00:00:00:01",
	}))
	require.NoError(t, p.Add("ipv4", map[string]any{
		"src": "192.168.0.1",
		"dst": "192.168.0.199",
	}))
	require.NoError(t, p.Add("udp", map[string]any{
		"sport": 5060,
		"dport": 5060,
	}))
	udp, ok := p.Header("udp", 0)
	require.True(t, ok)
	udp.SetBody([]byte("hello"))
	return p
}

func TestStackBuildAndParse(t *testing.T) {
	reg := newStackRegistry()
	p := buildUDPPacket(t, reg)
	p.CalcLength()
	p.CalcChecksum()
	data := p.Serialize()
	require.Len(t, data, 14+20+8+5)

	q, err := reg.Parse(data, "eth")
	require.NoError(t, err)
	require.Equal(t, 3, q.Len())

	ip, ok := q.Header("ipv4", 0)
	require.True(t, ok)
	length, err := ip.Uint("length")
	require.NoError(t, err)
	require.EqualValues(t, 33, length)

	udp, ok := q.Header("udp", 0)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), udp.Body())

	require.Equal(t, data, q.Serialize())
}

func TestStackParseWithoutHint(t *testing.T) {
	reg := newStackRegistry()
	p := buildUDPPacket(t, reg)
	p.CalcLength()
	data := p.Serialize()

	q, err := reg.Parse(data, "")
	require.NoError(t, err)
	require.Equal(t, "eth", q.Headers()[0].ProtocolName())
	require.Equal(t, 3, q.Len())
}

func TestStackVLAN(t *testing.T) {
	reg := newStackRegistry()
	p := packet.NewWith(reg)
	require.NoError(t, p.Add("eth", nil))
	require.NoError(t, p.Add("dot1q", map[string]any{"vid": 100}))
	require.NoError(t, p.Add("ipv4", nil))
	require.NoError(t, p.Add("udp", nil))
	p.CalcLength()
	data := p.Serialize()

	q, err := reg.Parse(data, "eth")
	require.NoError(t, err)
	require.Equal(t, 4, q.Len())

	eth := q.Headers()[0]
	require.Equal(t, "vlan", eth.(*Ethernet).Human("ethertype"))
	tag, ok := q.Header("dot1q", 0)
	require.True(t, ok)
	vid, err := tag.Uint("vid")
	require.NoError(t, err)
	require.EqualValues(t, 100, vid)
}

func TestUDPChecksumVerifies(t *testing.T) {
	reg := newStackRegistry()
	p := buildUDPPacket(t, reg)
	p.CalcLength()
	p.CalcChecksum()

	udp, ok := p.Header("udp", 0)
	require.True(t, ok)
	sum, err := udp.Uint("checksum")
	require.NoError(t, err)
	require.NotZero(t, sum)

	// With the transmitted checksum in place, summing the pseudo-header
	// and segment again folds to zero.
	seg := udp.Serialize(nil)
	acc, ok := pseudoHeaderSum(p, udp, 17, len(seg))
	require.True(t, ok)
	require.Zero(t, foldSum(sum16(acc, seg)))
}

func TestUDPChecksumWithoutNetworkLayer(t *testing.T) {
	h := NewUDP()
	h.CalcChecksum()
	sum, err := h.Uint("checksum")
	require.NoError(t, err)
	require.Zero(t, sum)
}

func TestTCPChecksumVerifies(t *testing.T) {
	reg := newStackRegistry()
	p := packet.NewWith(reg)
	require.NoError(t, p.Add("ipv4", map[string]any{
		"src": "10.0.0.1",
		"dst": "10.0.0.2",
	}))
	require.NoError(t, p.Add("tcp", map[string]any{
		"sport": 8080,
		"dport": 80,
		"syn":   1,
	}))
	p.CalcLength()
	p.CalcChecksum()

	tcp, ok := p.Header("tcp", 0)
	require.True(t, ok)
	seg := tcp.Serialize(nil)
	acc, ok := pseudoHeaderSum(p, tcp, 6, len(seg))
	require.True(t, ok)
	require.Zero(t, foldSum(sum16(acc, seg)))
}

func TestTCPHeaderFillsDataOffset(t *testing.T) {
	reg := newStackRegistry()
	p := packet.NewWith(reg)
	require.NoError(t, p.Add("ipv4", map[string]any{
		"src": "10.0.0.1",
		"dst": "10.0.0.2",
	}))
	require.NoError(t, p.Add("tcp", nil))

	h, ok := p.Header("tcp", 0)
	require.True(t, ok)
	tcp := h.(*TCP)
	opt, err := tcp.AddOption("ws")
	require.NoError(t, err)
	require.NoError(t, opt.SetUint("value", 7))
	opt.CalcLength()
	tcp.SetBody([]byte{0xCA, 0xFE, 0xBA, 0xBE})

	p.CalcLength()
	p.CalcChecksum()

	off, err := tcp.Uint("dataoff")
	require.NoError(t, err)
	seg := tcp.Serialize(nil)
	// The header region is exactly dataoff words; the payload starts
	// right after it.
	require.Len(t, seg, int(off)*4+4)
	require.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE}, seg[off*4:])

	q, err := reg.Parse(p.Serialize(), "ipv4")
	require.NoError(t, err)
	parsed, ok := q.Header("tcp", 0)
	require.True(t, ok)
	require.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE}, parsed.Body())
}

func TestStackDecapsulateVLAN(t *testing.T) {
	reg := newStackRegistry()
	p := packet.NewWith(reg)
	require.NoError(t, p.Add("eth", nil))
	require.NoError(t, p.Add("dot1q", nil))
	require.NoError(t, p.Add("ipv4", nil))

	require.NoError(t, p.Decapsulate("dot1q"))
	require.Equal(t, 2, p.Len())
	eth := p.Headers()[0]
	require.Equal(t, "ipv4", eth.(*Ethernet).Human("ethertype"))
}
