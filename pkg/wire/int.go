package wire

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Int is a fixed-width integer field. Multi-byte values default to
// network (big-endian) byte order; little-endian variants are explicit.
// The 24-bit widths have no native machine representation and are
// decoded as a 1-byte and a 2-byte sub-read combined arithmetically.
type Int struct {
	value  uint64
	width  int
	little bool
	signed bool
}

// Unsigned big-endian constructors.

func NewUint8() *Int  { return &Int{width: 1} }
func NewUint16() *Int { return &Int{width: 2} }
func NewUint24() *Int { return &Int{width: 3} }
func NewUint32() *Int { return &Int{width: 4} }
func NewUint64() *Int { return &Int{width: 8} }

// Unsigned little-endian constructors.

func NewUint16LE() *Int { return &Int{width: 2, little: true} }
func NewUint24LE() *Int { return &Int{width: 3, little: true} }
func NewUint32LE() *Int { return &Int{width: 4, little: true} }
func NewUint64LE() *Int { return &Int{width: 8, little: true} }

// Signed big-endian constructors. The wire form is identical to the
// unsigned one; only the human rendering changes.

func NewInt8() *Int  { return &Int{width: 1, signed: true} }
func NewInt16() *Int { return &Int{width: 2, signed: true} }
func NewInt32() *Int { return &Int{width: 4, signed: true} }
func NewInt64() *Int { return &Int{width: 8, signed: true} }

// Value returns the stored integer.
func (i *Int) Value() uint64 { return i.value }

// Set adopts an integer value directly, truncated to the field width.
func (i *Int) Set(v uint64) {
	i.value = v & i.mask()
}

// Signed returns the stored value sign-extended from the field width.
func (i *Int) Signed() int64 {
	shift := uint(64 - i.width*8)
	return int64(i.value<<shift) >> shift
}

func (i *Int) mask() uint64 {
	if i.width >= 8 {
		return ^uint64(0)
	}
	return 1<<(uint(i.width)*8) - 1
}

// Read decodes exactly the field width from the front of b.
func (i *Int) Read(b []byte) (int, error) {
	if len(b) < i.width {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTooShort, i.width, len(b))
	}
	switch i.width {
	case 1:
		i.value = uint64(b[0])
	case 2:
		if i.little {
			i.value = uint64(binary.LittleEndian.Uint16(b))
		} else {
			i.value = uint64(binary.BigEndian.Uint16(b))
		}
	case 3:
		// 1+2 byte sub-reads combined arithmetically.
		if i.little {
			lo := uint64(binary.LittleEndian.Uint16(b[0:2]))
			hi := uint64(b[2])
			i.value = hi<<16 | lo
		} else {
			hi := uint64(b[0])
			lo := uint64(binary.BigEndian.Uint16(b[1:3]))
			i.value = hi<<16 | lo
		}
	case 4:
		if i.little {
			i.value = uint64(binary.LittleEndian.Uint32(b))
		} else {
			i.value = uint64(binary.BigEndian.Uint32(b))
		}
	case 8:
		if i.little {
			i.value = binary.LittleEndian.Uint64(b)
		} else {
			i.value = binary.BigEndian.Uint64(b)
		}
	}
	return i.width, nil
}

// Serialize appends exactly the field width in the declared endianness.
func (i *Int) Serialize(dst []byte) []byte {
	v := i.value & i.mask()
	switch i.width {
	case 1:
		return append(dst, byte(v))
	case 2:
		if i.little {
			return binary.LittleEndian.AppendUint16(dst, uint16(v))
		}
		return binary.BigEndian.AppendUint16(dst, uint16(v))
	case 3:
		// Split back into the 1+2 byte halves.
		if i.little {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(v&0xFFFF))
			return append(dst, byte(v>>16))
		}
		dst = append(dst, byte(v>>16))
		return binary.BigEndian.AppendUint16(dst, uint16(v&0xFFFF))
	case 4:
		if i.little {
			return binary.LittleEndian.AppendUint32(dst, uint32(v))
		}
		return binary.BigEndian.AppendUint32(dst, uint32(v))
	case 8:
		if i.little {
			return binary.LittleEndian.AppendUint64(dst, v)
		}
		return binary.BigEndian.AppendUint64(dst, v)
	}
	return dst
}

// Size returns the declared byte width.
func (i *Int) Size() int { return i.width }

// Human renders the value as a plain decimal integer, signed when the
// field was declared signed.
func (i *Int) Human() string {
	if i.signed {
		return strconv.FormatInt(i.Signed(), 10)
	}
	return strconv.FormatUint(i.value, 10)
}

// SetHuman parses a decimal, 0x-hex or 0-octal integer literal.
func (i *Int) SetHuman(s string) error {
	if i.signed {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return fmt.Errorf("stratum: bad integer literal %q: %w", s, err)
		}
		i.Set(uint64(v))
		return nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("stratum: bad integer literal %q: %w", s, err)
	}
	i.Set(v)
	return nil
}
