package record

// Padded wraps a sequence element whose wire form is zero-padded to a
// multiple of Align bytes. Alignment is a trait of the protocols that
// require it (SCTP chunks, IKE attributes), layered on top of the base
// element rather than baked into the codec.
type Padded struct {
	Inner Element
	Align int
}

// Pad4 wraps an element with the common 4-byte alignment rule.
func Pad4(e Element) *Padded { return &Padded{Inner: e, Align: 4} }

func (p *Padded) pad(n int) int {
	if p.Align <= 1 {
		return 0
	}
	if rem := n % p.Align; rem != 0 {
		return p.Align - rem
	}
	return 0
}

// Read decodes the inner element and then consumes its trailing
// padding. A final element whose padding was truncated off the wire is
// tolerated: only the bytes actually present are consumed.
func (p *Padded) Read(b []byte) (int, error) {
	n, err := p.Inner.Read(b)
	if err != nil {
		return 0, err
	}
	pad := p.pad(n)
	if rest := len(b) - n; pad > rest {
		pad = rest
	}
	return n + pad, nil
}

// Serialize appends the inner element followed by its zero padding.
func (p *Padded) Serialize(dst []byte) []byte {
	start := len(dst)
	dst = p.Inner.Serialize(dst)
	for i := p.pad(len(dst) - start); i > 0; i-- {
		dst = append(dst, 0)
	}
	return dst
}

// Size reports the inner size rounded up to the alignment boundary.
func (p *Padded) Size() int {
	n := p.Inner.Size()
	return n + p.pad(n)
}
