package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestStrFixedRoundTrip(t *testing.T) {
	f := NewStrFixed(4)
	n, err := f.Read([]byte("abcdef"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 4 {
		t.Errorf("consumed %d, want 4", n)
	}
	if string(f.Value()) != "abcd" {
		t.Errorf("value %q, want abcd", f.Value())
	}
	if !bytes.Equal(f.Serialize(nil), []byte("abcd")) {
		t.Errorf("serialize %q", f.Serialize(nil))
	}
}

func TestStrFixedTooShort(t *testing.T) {
	f := NewStrFixed(8)
	if _, err := f.Read([]byte("abc")); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestStrFixedSetKeepsWidth(t *testing.T) {
	f := NewStrFixed(4)
	f.Set([]byte("xy"))
	if out := f.Serialize(nil); !bytes.Equal(out, []byte{'x', 'y', 0, 0}) {
		t.Errorf("serialize % x, want zero-padded", out)
	}
	f.Set([]byte("abcdef"))
	if out := f.Serialize(nil); !bytes.Equal(out, []byte("abcd")) {
		t.Errorf("serialize %q, want truncated abcd", out)
	}
}

func TestStrUnboundedConsumesAll(t *testing.T) {
	f := NewStr()
	n, err := f.Read([]byte("payload"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 7 {
		t.Errorf("consumed %d, want 7", n)
	}
	if string(f.Value()) != "payload" {
		t.Errorf("value %q", f.Value())
	}
}

func TestCStrRoundTrip(t *testing.T) {
	f := NewCStr()
	wire := []byte("hello\x00world")
	n, err := f.Read(wire)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 6 {
		t.Errorf("consumed %d, want 6 (value + NUL)", n)
	}
	if string(f.Value()) != "hello" {
		t.Errorf("value %q", f.Value())
	}
	if !bytes.Equal(f.Serialize(nil), []byte("hello\x00")) {
		t.Errorf("serialize % x", f.Serialize(nil))
	}
	if f.Size() != 6 {
		t.Errorf("size %d, want 6", f.Size())
	}
}

func TestCStrMissingTerminator(t *testing.T) {
	f := NewCStr()
	if _, err := f.Read([]byte("no terminator")); !errors.Is(err, ErrStructural) {
		t.Fatalf("expected ErrStructural, got %v", err)
	}
}

func TestStrHuman(t *testing.T) {
	f := NewStr()
	f.Set([]byte("plain"))
	if f.Human() != `"plain"` {
		t.Errorf("human %q", f.Human())
	}
	f.Set([]byte{0x01, 0x02})
	if f.Human() != "0102" {
		t.Errorf("human %q, want hex for unprintable bytes", f.Human())
	}
}
