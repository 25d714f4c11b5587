package headers

import "firestige.xyz/stratum/pkg/packet"

// RegisterAll installs every shipped protocol and its bindings into the
// registry. Registration order matters: it is the probe order when a
// packet is parsed without a first-header hint, so link layers come
// first.
func RegisterAll(reg *packet.Registry) {
	reg.Register("eth", func() packet.Header { return NewEthernet() })
	reg.Register("dot1q", func() packet.Header { return NewDot1Q() })
	reg.Register("ipv4", func() packet.Header { return NewIPv4() })
	reg.Register("tcp", func() packet.Header { return NewTCP() })
	reg.Register("udp", func() packet.Header { return NewUDP() })
	reg.Register("sctp", func() packet.Header { return NewSCTP() })
	reg.Register(packet.RawName, func() packet.Header { return packet.NewRaw() })

	reg.Bind("eth", "dot1q", "ethertype", EtherTypes["vlan"])
	reg.Bind("eth", "ipv4", "ethertype", EtherTypes["ipv4"])
	reg.Bind("dot1q", "ipv4", "ethertype", EtherTypes["ipv4"])
	reg.Bind("ipv4", "tcp", "protocol", IPProtocols["tcp"])
	reg.Bind("ipv4", "udp", "protocol", IPProtocols["udp"])
	reg.Bind("ipv4", "sctp", "protocol", IPProtocols["sctp"])
}
