package headers

import (
	"firestige.xyz/stratum/pkg/record"
	"firestige.xyz/stratum/pkg/wire"
)

// EtherTypes maps symbolic names to the EtherType values the bundled
// bindings dispatch on.
var EtherTypes = map[string]uint64{
	"ipv4": 0x0800,
	"arp":  0x0806,
	"vlan": 0x8100,
	"ipv6": 0x86DD,
}

// Ethernet is an IEEE 802.3 frame header: destination and source MAC
// plus the EtherType discriminator selecting the payload protocol.
type Ethernet struct {
	*record.Record
}

// NewEthernet returns an Ethernet header defaulting to an IPv4 payload.
func NewEthernet() *Ethernet {
	r := record.New("eth",
		record.Custom("dst", func() wire.Field { return NewMACField() }),
		record.Custom("src", func() wire.Field { return NewMACField() }),
		record.U16("ethertype", record.Enum(EtherTypes), record.Default(0x0800)),
	)
	return &Ethernet{r}
}

// Dot1Q is an 802.1Q VLAN tag: priority, drop-eligible and VLAN id
// packed into the TCI, followed by the inner EtherType.
type Dot1Q struct {
	*record.Record
}

// NewDot1Q returns a VLAN tag defaulting to an IPv4 payload.
func NewDot1Q() *Dot1Q {
	r := record.New("dot1q",
		record.Group("tci", 16,
			record.Sub("pcp", 3),
			record.Sub("dei", 1),
			record.Sub("vid", 12),
		),
		record.U16("ethertype", record.Enum(EtherTypes), record.Default(0x0800)),
	)
	return &Dot1Q{r}
}
