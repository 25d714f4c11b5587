// Package headers bundles ready-made protocol definitions built on the
// record and packet engines: Ethernet, 802.1Q, IPv4, UDP, TCP and SCTP.
// Field layouts here are protocol data, not engine logic; new protocols
// plug in the same way from outside the module.
package headers

import (
	"fmt"
	"net"
	"net/netip"

	"firestige.xyz/stratum/pkg/wire"
)

// MACField is a 6-byte hardware address with aa:bb:cc:dd:ee:ff human form.
type MACField struct {
	addr [6]byte
}

// NewMACField returns a zeroed hardware address field.
func NewMACField() *MACField { return &MACField{} }

// Value returns the address bytes.
func (m *MACField) Value() []byte { return m.addr[:] }

// Set copies up to 6 bytes of v into the address.
func (m *MACField) Set(v []byte) {
	m.addr = [6]byte{}
	copy(m.addr[:], v)
}

func (m *MACField) Read(b []byte) (int, error) {
	if len(b) < 6 {
		return 0, fmt.Errorf("%w: need 6 bytes, have %d", wire.ErrTooShort, len(b))
	}
	copy(m.addr[:], b[:6])
	return 6, nil
}

func (m *MACField) Serialize(dst []byte) []byte { return append(dst, m.addr[:]...) }

func (m *MACField) Size() int { return 6 }

func (m *MACField) Human() string { return net.HardwareAddr(m.addr[:]).String() }

func (m *MACField) SetHuman(s string) error {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return fmt.Errorf("stratum: bad MAC %q: %w", s, err)
	}
	if len(hw) != 6 {
		return fmt.Errorf("stratum: MAC %q is not 6 bytes", s)
	}
	copy(m.addr[:], hw)
	return nil
}

// IPv4Field is a 4-byte address with dotted-quad human form.
type IPv4Field struct {
	addr [4]byte
}

// NewIPv4Field returns a zeroed address field.
func NewIPv4Field() *IPv4Field { return &IPv4Field{} }

// Value returns the address bytes.
func (f *IPv4Field) Value() []byte { return f.addr[:] }

// Set copies up to 4 bytes of v into the address.
func (f *IPv4Field) Set(v []byte) {
	f.addr = [4]byte{}
	copy(f.addr[:], v)
}

func (f *IPv4Field) Read(b []byte) (int, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: need 4 bytes, have %d", wire.ErrTooShort, len(b))
	}
	copy(f.addr[:], b[:4])
	return 4, nil
}

func (f *IPv4Field) Serialize(dst []byte) []byte { return append(dst, f.addr[:]...) }

func (f *IPv4Field) Size() int { return 4 }

func (f *IPv4Field) Human() string { return netip.AddrFrom4(f.addr).String() }

func (f *IPv4Field) SetHuman(s string) error {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return fmt.Errorf("stratum: bad IPv4 address %q", s)
	}
	f.addr = a.As4()
	return nil
}
