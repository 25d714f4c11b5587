package record

import (
	"fmt"

	"firestige.xyz/stratum/pkg/wire"
)

// Element is one entry of a Sequence: any value with the field read and
// serialize contract. Records and wire fields both qualify.
type Element interface {
	Read(b []byte) (int, error)
	Serialize(dst []byte) []byte
	Size() int
}

// Sequence is a homogeneous or polymorphic list of elements. Its extent
// is driven by the enclosing record: either an element count decoded
// from a sibling field, or a byte budget.
type Sequence struct {
	elems    []Element
	fixed    func() Element
	peek     func(b []byte) (uint64, error)
	lookup   func(kind uint64) Element
	onAppend func(prev, added Element)
	align    int
}

// SeqOption configures a Sequence.
type SeqOption func(*Sequence)

// OfElement sets the element factory of a homogeneous sequence. In a
// polymorphic sequence it is the fallback for unregistered kinds.
func OfElement(fn func() Element) SeqOption {
	return func(s *Sequence) { s.fixed = fn }
}

// Polymorphic makes the sequence peek each raw chunk's discriminator
// before decoding it and dispatch to the element lookup returns. A nil
// lookup result falls back to the OfElement factory.
func Polymorphic(peek func(b []byte) (uint64, error), lookup func(kind uint64) Element) SeqOption {
	return func(s *Sequence) {
		s.peek = peek
		s.lookup = lookup
	}
}

// PadTo zero-pads the sequence's serialized form as a whole to a
// multiple of align bytes. Elements keep their natural sizes; protocols
// whose element area must fill a word-derived extent (TCP options
// filling the data offset) opt in here. The counterpart per-element
// alignment is Padded.
func PadTo(align int) SeqOption {
	return func(s *Sequence) { s.align = align }
}

// OnAppend installs a structural hook run when an element is appended
// after an existing one, with the previous last element and the new one.
// Protocols with a "last substructure" marker clear the previous
// element's flag here.
func OnAppend(fn func(prev, added Element)) SeqOption {
	return func(s *Sequence) { s.onAppend = fn }
}

// NewSequence returns an empty sequence.
func NewSequence(opts ...SeqOption) *Sequence {
	s := &Sequence{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequence) newElement(b []byte) (Element, error) {
	if s.peek != nil {
		kind, err := s.peek(b)
		if err != nil {
			return nil, err
		}
		if e := s.lookup(kind); e != nil {
			return e, nil
		}
	}
	if s.fixed == nil {
		return nil, fmt.Errorf("%w: sequence has no element type for chunk", wire.ErrStructural)
	}
	return s.fixed(), nil
}

// ReadCount decodes exactly count elements from the front of b and
// returns the bytes consumed, leaving any surplus untouched.
func (s *Sequence) ReadCount(b []byte, count int) (int, error) {
	s.elems = s.elems[:0]
	rest := b
	consumed := 0
	for i := 0; i < count; i++ {
		n, err := s.readOne(rest)
		if err != nil {
			return consumed, fmt.Errorf("element %d: %w", i, err)
		}
		rest = rest[n:]
		consumed += n
	}
	return consumed, nil
}

// ReadBudget decodes elements until the byte budget b is exhausted. An
// element whose declared extent overruns the budget is a structural
// error; bytes beyond the budget are never touched.
func (s *Sequence) ReadBudget(b []byte) (int, error) {
	s.elems = s.elems[:0]
	rest := b
	consumed := 0
	for len(rest) > 0 {
		n, err := s.readOne(rest)
		if err != nil {
			return consumed, fmt.Errorf("element %d: %w", len(s.elems), err)
		}
		rest = rest[n:]
		consumed += n
	}
	return consumed, nil
}

func (s *Sequence) readOne(rest []byte) (int, error) {
	e, err := s.newElement(rest)
	if err != nil {
		return 0, err
	}
	n, err := e.Read(rest)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: zero-length sequence element", wire.ErrStructural)
	}
	s.elems = append(s.elems, e)
	return n, nil
}

// Append adds an element to the end of the list, running the OnAppend
// hook against the previous last element when one exists.
func (s *Sequence) Append(e Element) {
	if s.onAppend != nil && len(s.elems) > 0 {
		s.onAppend(s.elems[len(s.elems)-1], e)
	}
	s.elems = append(s.elems, e)
}

// Len returns the element count.
func (s *Sequence) Len() int { return len(s.elems) }

// At returns the i-th element.
func (s *Sequence) At(i int) Element { return s.elems[i] }

// Elements returns the backing element list in order.
func (s *Sequence) Elements() []Element { return s.elems }

func (s *Sequence) pad(n int) int {
	if s.align <= 1 {
		return 0
	}
	if rem := n % s.align; rem != 0 {
		return s.align - rem
	}
	return 0
}

// Serialize appends every element's wire form in list order, then the
// area's zero padding when PadTo is in effect.
func (s *Sequence) Serialize(dst []byte) []byte {
	start := len(dst)
	for _, e := range s.elems {
		dst = e.Serialize(dst)
	}
	for i := s.pad(len(dst) - start); i > 0; i-- {
		dst = append(dst, 0)
	}
	return dst
}

// Size reports the summed serialized length of all elements, padding
// included.
func (s *Sequence) Size() int {
	n := 0
	for _, e := range s.elems {
		n += e.Size()
	}
	return n + s.pad(n)
}
