package wire

import (
	"bytes"
	"fmt"
)

// Str is a byte-string field. A fixed Str consumes exactly its declared
// width; an unbounded Str consumes everything it is offered, which is
// how length-sourced fields work: the enclosing record slices the buffer
// to the sibling-decoded length before calling Read.
type Str struct {
	value []byte
	fixed int // -1 = unbounded
}

// NewStr returns an unbounded byte-string field.
func NewStr() *Str { return &Str{fixed: -1} }

// NewStrFixed returns a byte-string field of exactly n bytes.
func NewStrFixed(n int) *Str { return &Str{fixed: n, value: make([]byte, n)} }

// Value returns the stored bytes. The slice is owned by the field.
func (s *Str) Value() []byte { return s.value }

// Set stores a copy of v. A fixed field keeps its width: v is truncated
// or zero-padded to fit.
func (s *Str) Set(v []byte) {
	if s.fixed < 0 {
		s.value = append(s.value[:0], v...)
		return
	}
	s.value = make([]byte, s.fixed)
	copy(s.value, v)
}

// Read consumes the declared width, or all of b when unbounded.
func (s *Str) Read(b []byte) (int, error) {
	n := s.fixed
	if n < 0 {
		n = len(b)
	}
	if len(b) < n {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTooShort, n, len(b))
	}
	s.value = append(s.value[:0], b[:n]...)
	return n, nil
}

// Serialize appends the stored bytes unchanged.
func (s *Str) Serialize(dst []byte) []byte { return append(dst, s.value...) }

// Size returns the current byte length.
func (s *Str) Size() int { return len(s.value) }

// Human renders printable content as a quoted string, otherwise hex.
func (s *Str) Human() string { return humanBytes(s.value) }

// SetHuman stores the literal bytes of the string.
func (s *Str) SetHuman(v string) error {
	s.Set([]byte(v))
	return nil
}

// CStr is a NUL-terminated byte string. The terminator is part of the
// wire form but not of the value.
type CStr struct {
	value []byte
}

// NewCStr returns an empty NUL-terminated string field.
func NewCStr() *CStr { return &CStr{} }

// Value returns the stored bytes without the terminator.
func (c *CStr) Value() []byte { return c.value }

// Set stores a copy of v.
func (c *CStr) Set(v []byte) { c.value = append(c.value[:0], v...) }

// Read consumes bytes up to and including the first NUL.
func (c *CStr) Read(b []byte) (int, error) {
	idx := bytes.IndexByte(b, 0)
	if idx < 0 {
		return 0, fmt.Errorf("%w: missing NUL terminator", ErrStructural)
	}
	c.value = append(c.value[:0], b[:idx]...)
	return idx + 1, nil
}

// Serialize appends the value followed by the NUL terminator.
func (c *CStr) Serialize(dst []byte) []byte {
	dst = append(dst, c.value...)
	return append(dst, 0)
}

// Size returns the value length plus the terminator.
func (c *CStr) Size() int { return len(c.value) + 1 }

// Human renders printable content as a quoted string, otherwise hex.
func (c *CStr) Human() string { return humanBytes(c.value) }

// SetHuman stores the literal bytes of the string.
func (c *CStr) SetHuman(v string) error {
	c.Set([]byte(v))
	return nil
}

func humanBytes(b []byte) string {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%x", b)
		}
	}
	return fmt.Sprintf("%q", b)
}
