package packet

import (
	"fmt"

	"firestige.xyz/stratum/internal/log"
)

// Packet is an ordered stack of headers, head outermost. Every adjacent
// pair is connected by a registered binding whose discriminator was
// either decoded off the wire or written when the pair was linked. A
// packet and its headers have one owner; Encapsulate and Decapsulate
// move headers, they never alias them.
type Packet struct {
	reg     *Registry
	headers []Header
}

// New returns an empty packet bound to the default registry.
func New() *Packet { return NewWith(Default()) }

// NewWith returns an empty packet bound to an explicit registry.
func NewWith(reg *Registry) *Packet { return &Packet{reg: reg} }

// Len returns the number of headers in the stack.
func (p *Packet) Len() int { return len(p.headers) }

// Headers returns the stack, head first. The slice is owned by the packet.
func (p *Packet) Headers() []Header { return p.headers }

// Header returns the idx-th instance (zero-based) of the named protocol.
func (p *Packet) Header(name string, idx int) (Header, bool) {
	seen := 0
	for _, h := range p.headers {
		if h.ProtocolName() != name {
			continue
		}
		if seen == idx {
			return h, true
		}
		seen++
	}
	return nil, false
}

func (p *Packet) tail() Header {
	if len(p.headers) == 0 {
		return nil
	}
	return p.headers[len(p.headers)-1]
}

func (p *Packet) adopt(h Header) {
	if pa, ok := h.(PacketAware); ok {
		pa.SetPacket(p)
	}
	p.headers = append(p.headers, h)
}

// Add instantiates the named header class, links it under the current
// tail and pushes it as the new tail. Linking requires a registered
// binding from the tail's class; its discriminator value is written
// into the tail so the stack stays parseable. fields are applied to the
// new header before linking.
func (p *Packet) Add(name string, fields map[string]any) error {
	f, ok := p.reg.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProtocol, name)
	}
	h := f()
	for k, v := range fields {
		if err := h.Set(k, v); err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
	}
	if tail := p.tail(); tail != nil {
		if err := p.link(tail, h); err != nil {
			return err
		}
	}
	p.adopt(h)
	return nil
}

// link wires tail → next: write the binding's discriminator value into
// tail and hand tail's body to next.
func (p *Packet) link(tail, next Header) error {
	b, ok := p.reg.findBinding(tail.ProtocolName(), next.ProtocolName())
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNoBinding, tail.ProtocolName(), next.ProtocolName())
	}
	if err := tail.SetUint(b.Field, b.Value); err != nil {
		return fmt.Errorf("link %s -> %s: %w", tail.ProtocolName(), next.ProtocolName(), err)
	}
	tail.SetPayload(next)
	return nil
}

// Serialize emits the whole packet: the head header's serialization
// cascades through the stack and ends with the tail's raw body.
func (p *Packet) Serialize() []byte {
	if len(p.headers) == 0 {
		return nil
	}
	return p.headers[0].Serialize(nil)
}

// Size reports the serialized length of the whole packet.
func (p *Packet) Size() int {
	if len(p.headers) == 0 {
		return 0
	}
	return p.headers[0].Size()
}

// CalcLength runs every header's length derivation, head to tail. Outer
// lengths may depend on inner, already-serializable content.
func (p *Packet) CalcLength() {
	for _, h := range p.headers {
		if lc, ok := h.(LengthCalculator); ok {
			lc.CalcLength()
		}
	}
}

// CalcChecksum runs every header's checksum derivation, tail to head,
// so checksums cover inner data whose lengths and checksums are final.
// The order relative to CalcLength is a contract: lengths first.
func (p *Packet) CalcChecksum() {
	for i := len(p.headers) - 1; i >= 0; i-- {
		if cc, ok := p.headers[i].(ChecksumCalculator); ok {
			cc.CalcChecksum()
		}
	}
}

// Encapsulate appends other's header stack onto this one, linking the
// seam exactly as Add would. other is emptied: its headers move, they
// are not shared.
func (p *Packet) Encapsulate(other *Packet) error {
	if other == nil || len(other.headers) == 0 {
		return nil
	}
	if tail := p.tail(); tail != nil {
		if err := p.link(tail, other.headers[0]); err != nil {
			return err
		}
	}
	for _, h := range other.headers {
		p.adopt(h)
	}
	other.headers = nil
	return nil
}

// Decapsulate removes every header of the named protocols from the
// stack. A seam created between two headers that were not previously
// adjacent needs a registered binding; the seam's discriminator is then
// rewritten as Add would write it. On any failure the packet is left
// unchanged.
func (p *Packet) Decapsulate(names ...string) error {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	kept := make([]Header, 0, len(p.headers))
	keptPos := make([]int, 0, len(p.headers))
	matched := make(map[string]bool, len(names))
	for i, h := range p.headers {
		if drop[h.ProtocolName()] {
			matched[h.ProtocolName()] = true
			continue
		}
		kept = append(kept, h)
		keptPos = append(keptPos, i)
	}
	for _, n := range names {
		if !matched[n] {
			return fmt.Errorf("%w: %s is not in the packet", ErrUnknownProtocol, n)
		}
	}

	// Validate every new seam before touching anything.
	type seam struct {
		upper Header
		b     Binding
	}
	var seams []seam
	for i := 0; i+1 < len(kept); i++ {
		if keptPos[i+1] == keptPos[i]+1 {
			continue // previously adjacent, binding already satisfied
		}
		b, ok := p.reg.findBinding(kept[i].ProtocolName(), kept[i+1].ProtocolName())
		if !ok {
			return fmt.Errorf("%w: %s -> %s", ErrNoBinding, kept[i].ProtocolName(), kept[i+1].ProtocolName())
		}
		seams = append(seams, seam{upper: kept[i], b: b})
	}

	for _, s := range seams {
		if err := s.upper.SetUint(s.b.Field, s.b.Value); err != nil {
			return fmt.Errorf("decapsulate: %w", err)
		}
	}
	for i := 0; i+1 < len(kept); i++ {
		kept[i].SetPayload(kept[i+1])
	}
	if len(kept) > 0 {
		// A tail whose payload was removed keeps nothing of it.
		if last := kept[len(kept)-1]; keptPos[len(kept)-1] != len(p.headers)-1 {
			last.SetBody(nil)
		}
	}
	p.headers = kept
	return nil
}

// Parse decodes data against the default registry. first names the
// outermost header class; an empty first engages the registration-order
// heuristic. See Registry.Parse.
func Parse(data []byte, first string) (*Packet, error) {
	return Default().Parse(data, first)
}

// Parse decodes data into a packet. When first is empty, every class
// with at least one outgoing binding is tried in registration order and
// the first that decodes cleanly wins; overlapping protocol layouts
// make this heuristic ambiguous, which is why the order is explicit.
// Decoding then follows bindings: the first edge, in registration
// order, whose matcher holds against the tail's discriminator picks the
// next class. Bytes that stop matching or fail structurally stay as the
// tail's raw body; input that yields no header at all comes back as a
// single Raw placeholder. The only error is an unknown first name.
func (r *Registry) Parse(data []byte, first string) (*Packet, error) {
	p := &Packet{reg: r}

	var head Header
	if first != "" {
		f, ok := r.Lookup(first)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, first)
		}
		h := f()
		if err := h.Decode(data); err != nil {
			log.GetLogger().Debugf("parse: hinted header %s rejected input: %v", first, err)
			p.adopt(NewRawBytes(data))
			return p, nil
		}
		head = h
	} else {
		head = r.guessFirst(data)
		if head == nil {
			p.adopt(NewRawBytes(data))
			return p, nil
		}
	}

	p.adopt(head)
	r.chain(p)
	return p, nil
}

// guessFirst tries a speculative decode of every class that has at
// least one outgoing binding, in registration order.
func (r *Registry) guessFirst(data []byte) Header {
	for _, name := range r.Protocols() {
		if !r.hasOutgoing(name) {
			continue
		}
		f, _ := r.Lookup(name)
		h := f()
		if err := h.Decode(data); err != nil {
			log.GetLogger().Tracef("parse: candidate %s rejected input: %v", name, err)
			continue
		}
		log.GetLogger().Tracef("parse: guessed first header %s", name)
		return h
	}
	return nil
}

// chain extends the stack while a binding matches the tail's
// discriminator and the tail's body decodes as the bound class.
func (r *Registry) chain(p *Packet) {
	for {
		tail := p.tail()
		body := tail.Body()
		if len(body) == 0 {
			return
		}
		next := r.matchNext(tail, body)
		if next == nil {
			return
		}
		tail.SetPayload(next)
		p.adopt(next)
	}
}

// matchNext evaluates the tail's outgoing bindings in registration
// order and decodes the body as the first matching target. A structural
// failure in the target leaves the body raw.
func (r *Registry) matchNext(tail Header, body []byte) Header {
	for _, b := range r.Bindings(tail.ProtocolName()) {
		v, err := tail.Uint(b.Field)
		if err != nil {
			continue
		}
		if !b.matches(v) {
			continue
		}
		f, ok := r.Lookup(b.Target)
		if !ok {
			log.GetLogger().Debugf("parse: binding %s -> %s targets unregistered class",
				tail.ProtocolName(), b.Target)
			continue
		}
		next := f()
		if err := next.Decode(body); err != nil {
			log.GetLogger().Debugf("parse: %s body rejected by %s: %v",
				tail.ProtocolName(), b.Target, err)
			return nil
		}
		return next
	}
	return nil
}
