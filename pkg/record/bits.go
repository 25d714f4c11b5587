package record

import (
	"fmt"
	"strconv"

	"firestige.xyz/stratum/pkg/wire"
)

// SubDef declares one bit-packed sub-field of a Group.
type SubDef struct {
	name       string
	bits       int
	defaultVal uint64
	hasDefault bool
}

// Sub declares a sub-field occupying bits bits of its group, packed
// most-significant-bit first in declaration order.
func Sub(name string, bits int, opts ...Option) SubDef {
	var d Def
	for _, opt := range opts {
		opt(&d)
	}
	return SubDef{name: name, bits: bits, defaultVal: d.defaultUint, hasDefault: d.hasDefault}
}

// Group declares a bit-packed field group backed by one physical
// integer of totalBits bits. The sub-field widths must sum to totalBits
// exactly and totalBits must be a whole number of bytes.
func Group(name string, totalBits int, subs ...SubDef) Def {
	return Def{name: name, group: &groupDef{name: name, totalBits: totalBits, subs: subs}}
}

type groupDef struct {
	name      string
	totalBits int
	subs      []SubDef
}

func (g *groupDef) validate(recordName string) {
	if g.totalBits%8 != 0 {
		panic(fmt.Sprintf("stratum: record %s: group %s width %d is not a whole number of bytes",
			recordName, g.name, g.totalBits))
	}
	sum := 0
	for _, s := range g.subs {
		if s.bits <= 0 {
			panic(fmt.Sprintf("stratum: record %s: group %s sub %s has bit width %d",
				recordName, g.name, s.name, s.bits))
		}
		sum += s.bits
	}
	if sum != g.totalBits {
		panic(fmt.Sprintf("stratum: record %s: group %s sub widths sum to %d, want %d",
			recordName, g.name, sum, g.totalBits))
	}
}

func (g *groupDef) newField(recordName string) *wire.Int {
	switch g.totalBits / 8 {
	case 1:
		return wire.NewUint8()
	case 2:
		return wire.NewUint16()
	case 3:
		return wire.NewUint24()
	case 4:
		return wire.NewUint32()
	case 8:
		return wire.NewUint64()
	}
	panic(fmt.Sprintf("stratum: record %s: group %s has unsupported width %d bits",
		recordName, g.name, g.totalBits))
}

// bitGroup is the instantiated form of a groupDef: one physical integer
// plus the shift/mask bookkeeping for its sub-fields.
type bitGroup struct {
	def  *groupDef
	phys *wire.Int
}

// shiftMask returns the LSB shift and mask of the named sub-field.
func (b *bitGroup) shiftMask(name string) (uint, uint64, bool) {
	used := 0
	for _, s := range b.def.subs {
		used += s.bits
		if s.name == name {
			shift := uint(b.def.totalBits - used)
			return shift, 1<<uint(s.bits) - 1, true
		}
	}
	return 0, 0, false
}

func (b *bitGroup) get(name string) (uint64, error) {
	shift, mask, ok := b.shiftMask(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return b.phys.Value() >> shift & mask, nil
}

func (b *bitGroup) set(name string, v uint64) error {
	shift, mask, ok := b.shiftMask(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if v > mask {
		return fmt.Errorf("%w: %s = %d (max %d)", wire.ErrBitOverflow, name, v, mask)
	}
	b.phys.Set(b.phys.Value()&^(mask<<shift) | v<<shift)
	return nil
}

func (b *bitGroup) human(name string) string {
	v, err := b.get(name)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(v, 10)
}
