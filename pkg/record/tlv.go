package record

import (
	"fmt"

	"firestige.xyz/stratum/pkg/wire"
)

// TLVSpec parametrizes a Type-Length-Value record family: the scalar
// codecs of the type and length fields, the value codec, the field
// order on the wire, and which of the three fields count toward the
// encoded length value. Some protocols count only the value; others
// count the type and length fields too.
type TLVSpec struct {
	Name   string
	Type   func() wire.Field
	Length func() wire.Field
	Value  func() wire.Field // nil = unbounded byte string
	Order  []string          // nil = type, length, value
	Counts []string          // nil = value only
	Enum   map[string]uint64 // symbolic kind names for the type field

	// FixedType pins the type field's default; derived subtypes use it
	// as their dispatch key.
	FixedType *uint64
}

// Derive returns a subtype spec with a fixed type value and a concrete
// value codec, inheriting everything else from the parent family.
func (s TLVSpec) Derive(name string, typeVal uint64, value func() wire.Field) TLVSpec {
	s.Name = name
	s.FixedType = &typeVal
	if value != nil {
		s.Value = value
	}
	return s
}

// New produces a fresh record of this TLV family. The value field's
// decoded extent is the length value minus the counted overhead, and
// CalcLength sums exactly the counted fields.
func (s TLVSpec) New() *Record {
	if s.Type == nil || s.Length == nil {
		panic(fmt.Sprintf("stratum: tlv %s: type and length codecs are required", s.Name))
	}
	value := s.Value
	if value == nil {
		value = func() wire.Field { return wire.NewStr() }
	}
	counts := s.Counts
	if counts == nil {
		counts = []string{"value"}
	}
	order := s.Order
	if order == nil {
		order = []string{"type", "length", "value"}
	}

	typeOpts := make([]Option, 0, 2)
	if s.Enum != nil {
		typeOpts = append(typeOpts, Enum(s.Enum))
	}
	if s.FixedType != nil {
		typeOpts = append(typeOpts, Default(*s.FixedType))
	}

	r := New(s.Name,
		Custom("type", s.Type, typeOpts...),
		Custom("length", s.Length),
		Custom("value", value, LengthBy(func(r *Record) uint64 {
			lv, err := r.Uint("length")
			if err != nil {
				panic("stratum: tlv length field is not an integer: " + err.Error())
			}
			// Unsigned underflow on a length smaller than its own counted
			// overhead yields a huge extent, caught as a structural error
			// against the remaining buffer.
			return lv - countedOverhead(r, counts)
		})),
	)
	r.WithOrder(order...)
	r.WithCalcLength("length", func(r *Record) uint64 {
		n := uint64(0)
		for _, name := range counts {
			b, err := r.Bytes(name)
			if err != nil {
				panic("stratum: tlv counted field: " + err.Error())
			}
			n += uint64(len(b))
		}
		return n
	})
	return r
}

// countedOverhead sums the wire sizes of the counted fields other than
// the value itself.
func countedOverhead(r *Record, counts []string) uint64 {
	n := uint64(0)
	for _, name := range counts {
		if name == "value" {
			continue
		}
		b, err := r.Bytes(name)
		if err != nil {
			panic("stratum: tlv counted field: " + err.Error())
		}
		n += uint64(len(b))
	}
	return n
}

// TLVRegistry resolves which derived subtype to instantiate from a
// decoded type value; unregistered values fall back to the base family.
// Dispatch peeks the type field, so it requires the family to put the
// type first on the wire.
type TLVRegistry struct {
	base   TLVSpec
	byType map[uint64]TLVSpec
}

// NewRegistry returns a subtype registry rooted at this family.
func (s TLVSpec) NewRegistry() *TLVRegistry {
	return &TLVRegistry{base: s, byType: make(map[uint64]TLVSpec)}
}

// Register adds a derived subtype keyed on its fixed type value.
// Re-registering a value or registering a spec without one panics, as
// both are protocol-definition mistakes.
func (g *TLVRegistry) Register(sub TLVSpec) {
	if sub.FixedType == nil {
		panic(fmt.Sprintf("stratum: tlv subtype %s has no fixed type value", sub.Name))
	}
	if _, dup := g.byType[*sub.FixedType]; dup {
		panic(fmt.Sprintf("stratum: tlv type value %d registered twice", *sub.FixedType))
	}
	g.byType[*sub.FixedType] = sub
}

// New instantiates the subtype registered for kind, or the base family
// when none is.
func (g *TLVRegistry) New(kind uint64) *Record {
	if sub, ok := g.byType[kind]; ok {
		return sub.New()
	}
	return g.base.New()
}

// Peek decodes just the type field from the front of a raw chunk.
func (g *TLVRegistry) Peek(b []byte) (uint64, error) {
	f := g.base.Type()
	if _, err := f.Read(b); err != nil {
		return 0, err
	}
	v, ok := f.(interface{ Value() uint64 })
	if !ok {
		return 0, fmt.Errorf("%w: tlv type field is not an integer", ErrFieldType)
	}
	return v.Value(), nil
}

// Sequence returns a polymorphic sequence dispatching through this
// registry, suitable as a List field of an enclosing record.
func (g *TLVRegistry) Sequence(opts ...SeqOption) *Sequence {
	base := []SeqOption{
		Polymorphic(g.Peek, func(kind uint64) Element { return g.New(kind) }),
	}
	return NewSequence(append(base, opts...)...)
}
