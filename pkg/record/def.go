package record

import "firestige.xyz/stratum/pkg/wire"

// Def declares one field slot of a record: its name, how to build the
// backing codec, and the decoding rules that tie it to its siblings.
type Def struct {
	name         string
	make         func() wire.Field
	makeSeq      func() *Sequence
	group        *groupDef
	defaultUint  uint64
	hasDefault   bool
	defaultBytes []byte
	enum         map[string]uint64
	lengthBy     func(*Record) uint64
	countBy      func(*Record) uint64
	build        func(*Record) uint64
}

// Option tweaks a field declaration.
type Option func(*Def)

// Default sets the initial integer value of the field.
func Default(v uint64) Option {
	return func(d *Def) {
		d.defaultUint = v
		d.hasDefault = true
	}
}

// DefaultBytes sets the initial byte content of the field.
func DefaultBytes(v []byte) Option {
	return func(d *Def) { d.defaultBytes = v }
}

// Enum attaches a symbolic-name table to the field. Assigning a name
// resolves it to its integer before storage; an unknown name fails with
// ErrUnknownEnum.
func Enum(table map[string]uint64) Option {
	return func(d *Def) { d.enum = table }
}

// LengthFrom makes the sibling field named src supply this field's
// decoded byte length.
func LengthFrom(src string) Option {
	return LengthBy(func(r *Record) uint64 {
		v, err := r.Uint(src)
		if err != nil {
			panic("stratum: bad length source field " + src + ": " + err.Error())
		}
		return v
	})
}

// LengthBy makes fn supply this field's decoded byte length, computed
// from sibling fields already decoded.
func LengthBy(fn func(*Record) uint64) Option {
	return func(d *Def) { d.lengthBy = fn }
}

// CountFrom makes the sibling field named src supply the element count
// of a sequence field.
func CountFrom(src string) Option {
	return CountBy(func(r *Record) uint64 {
		v, err := r.Uint(src)
		if err != nil {
			panic("stratum: bad count source field " + src + ": " + err.Error())
		}
		return v
	})
}

// CountBy makes fn supply the element count of a sequence field.
func CountBy(fn func(*Record) uint64) Option {
	return func(d *Def) { d.countBy = fn }
}

// Built derives the field's initial value from sibling fields at
// construction time, after plain defaults are in place.
func Built(fn func(*Record) uint64) Option {
	return func(d *Def) { d.build = fn }
}

// Custom declares a field backed by an arbitrary wire codec.
func Custom(name string, make func() wire.Field, opts ...Option) Def {
	d := Def{name: name, make: make}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Fixed-width integer declarations. Multi-byte values are big-endian
// unless the LE variant is used.

func U8(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewUint8() }, opts...)
}

func U16(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewUint16() }, opts...)
}

func U16LE(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewUint16LE() }, opts...)
}

func U24(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewUint24() }, opts...)
}

func U32(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewUint32() }, opts...)
}

func U32LE(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewUint32LE() }, opts...)
}

func U64(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewUint64() }, opts...)
}

// Bytes declares an unbounded byte-string field; pair it with
// LengthFrom/LengthBy to bound it, or leave it last to soak up the rest
// of the record's extent.
func Bytes(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewStr() }, opts...)
}

// BytesFixed declares a byte-string field of exactly n bytes.
func BytesFixed(name string, n int, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewStrFixed(n) }, opts...)
}

// CString declares a NUL-terminated string field.
func CString(name string, opts ...Option) Def {
	return Custom(name, func() wire.Field { return wire.NewCStr() }, opts...)
}

// List declares a repeating-sequence field. Bound it with CountFrom
// (element-count mode) or LengthBy (byte-budget mode); unbounded lists
// consume the rest of the record's extent.
func List(name string, make func() *Sequence, opts ...Option) Def {
	d := Def{name: name, makeSeq: make}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
