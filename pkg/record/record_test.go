package record

import (
	"bytes"
	"errors"
	"testing"

	"firestige.xyz/stratum/pkg/wire"
)

func TestSerializeDeclarationOrder(t *testing.T) {
	r := New("demo",
		U8("kind"),
		U16("tag"),
	)
	if err := r.SetUint("kind", 0x07); err != nil {
		t.Fatalf("set kind: %v", err)
	}
	if err := r.SetUint("tag", 0x1122); err != nil {
		t.Fatalf("set tag: %v", err)
	}
	want := []byte{0x07, 0x11, 0x22}
	if out := r.Serialize(nil); !bytes.Equal(out, want) {
		t.Fatalf("serialize % x, want % x", out, want)
	}
}

func TestReadSerializeRoundTrip(t *testing.T) {
	mk := func() *Record {
		return New("demo", U8("a"), U32("b"), BytesFixed("c", 2))
	}
	wireBytes := []byte{0xAA, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

	r := mk()
	n, err := r.Read(wireBytes)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != len(wireBytes) {
		t.Errorf("consumed %d, want %d", n, len(wireBytes))
	}
	if out := r.Serialize(nil); !bytes.Equal(out, wireBytes) {
		t.Errorf("round trip % x, want % x", out, wireBytes)
	}
}

func TestBitGroupPackingMSBFirst(t *testing.T) {
	r := New("ip-ish",
		Group("verihl", 8,
			Sub("version", 4, Default(4)),
			Sub("ihl", 4, Default(5)),
		),
	)
	// version occupies the high nibble.
	if out := r.Serialize(nil); !bytes.Equal(out, []byte{0x45}) {
		t.Fatalf("serialize % x, want 45", out)
	}

	if v, err := r.Uint("version"); err != nil || v != 4 {
		t.Errorf("version = %d (%v), want 4", v, err)
	}
	if err := r.SetUint("ihl", 15); err != nil {
		t.Fatalf("set ihl: %v", err)
	}
	if out := r.Serialize(nil); !bytes.Equal(out, []byte{0x4F}) {
		t.Errorf("serialize % x, want 4F", out)
	}
}

func TestBitGroupOverflow(t *testing.T) {
	r := New("demo", Group("g", 8, Sub("hi", 3), Sub("lo", 5)))
	if err := r.SetUint("hi", 8); !errors.Is(err, wire.ErrBitOverflow) {
		t.Fatalf("expected ErrBitOverflow, got %v", err)
	}
	if err := r.SetUint("hi", 7); err != nil {
		t.Fatalf("set hi=7: %v", err)
	}
}

func TestBitGroupBadWidthsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for sub widths not summing to group width")
		}
	}()
	New("demo", Group("g", 8, Sub("a", 3), Sub("b", 3)))
}

func TestLengthSourceField(t *testing.T) {
	mk := func() *Record {
		return New("demo",
			U8("len"),
			Bytes("data", LengthFrom("len")),
		)
	}

	r := mk()
	if err := r.Decode([]byte{0x03, 'a', 'b', 'c', 'x', 'y'}); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, err := r.Bytes("data")
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("data %q, want abc", data)
	}
	if string(r.Body()) != "xy" {
		t.Errorf("body %q, want trailing bytes", r.Body())
	}
}

func TestLengthSourceExceedsBuffer(t *testing.T) {
	r := New("demo", U8("len"), Bytes("data", LengthFrom("len")))
	err := r.Decode([]byte{0x09, 'a', 'b'})
	if !errors.Is(err, wire.ErrStructural) {
		t.Fatalf("expected ErrStructural, got %v", err)
	}
}

func TestEnumField(t *testing.T) {
	protocols := map[string]uint64{"tcp": 6, "udp": 17}
	r := New("demo", U8("proto", Enum(protocols)))

	if err := r.Set("proto", "udp"); err != nil {
		t.Fatalf("set by symbol: %v", err)
	}
	if v, _ := r.Uint("proto"); v != 17 {
		t.Errorf("proto = %d, want 17", v)
	}
	if h := r.Human("proto"); h != "udp" {
		t.Errorf("human %q, want udp", h)
	}

	if err := r.Set("proto", "quic"); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}
	// Raw integers outside the table still store and render numerically.
	if err := r.SetUint("proto", 99); err != nil {
		t.Fatalf("set raw: %v", err)
	}
	if h := r.Human("proto"); h != "99" {
		t.Errorf("human %q, want 99", h)
	}
}

func TestBuiltDefault(t *testing.T) {
	r := New("demo",
		U8("base", Default(40)),
		U8("twice", Built(func(r *Record) uint64 {
			v, _ := r.Uint("base")
			return v * 2
		})),
	)
	if v, _ := r.Uint("twice"); v != 80 {
		t.Errorf("twice = %d, want 80", v)
	}
}

func TestSerializationOrderOverride(t *testing.T) {
	r := New("demo",
		U8("type", Default(1)),
		U8("length", Default(2)),
		BytesFixed("value", 2, DefaultBytes([]byte{0xAA, 0xBB})),
	).WithOrder("type", "value", "length")

	want := []byte{0x01, 0xAA, 0xBB, 0x02}
	if out := r.Serialize(nil); !bytes.Equal(out, want) {
		t.Fatalf("serialize % x, want % x", out, want)
	}
}

func TestDecodeCapturesBody(t *testing.T) {
	r := New("demo", U16("tag"))
	if err := r.Decode([]byte{0x01, 0x02, 0xDE, 0xAD}); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(r.Body(), []byte{0xDE, 0xAD}) {
		t.Errorf("body % x", r.Body())
	}
	if out := r.Serialize(nil); !bytes.Equal(out, []byte{0x01, 0x02, 0xDE, 0xAD}) {
		t.Errorf("serialize % x", out)
	}
	if r.Size() != 4 {
		t.Errorf("size %d, want 4", r.Size())
	}
}

func TestPayloadReplacesBody(t *testing.T) {
	outer := New("outer", U8("kind"))
	outer.SetBody([]byte{0xFF})

	inner := New("inner", U16("tag"))
	if err := inner.SetUint("tag", 0x1234); err != nil {
		t.Fatal(err)
	}
	outer.SetPayload(inner)

	if outer.Body() != nil {
		t.Error("raw body should be dropped when a payload is attached")
	}
	if out := outer.Serialize(nil); !bytes.Equal(out, []byte{0x00, 0x12, 0x34}) {
		t.Errorf("serialize % x", out)
	}
	// And the reverse: raw body drops the payload owner.
	outer.SetBody([]byte{0x01})
	if outer.Payload() != nil {
		t.Error("payload should be dropped when raw body is set")
	}
}

func TestCalcLengthIsExplicit(t *testing.T) {
	r := New("demo",
		U8("length"),
		Bytes("data"),
	).WithCalcLength("length", func(r *Record) uint64 {
		b, _ := r.Bytes("data")
		return uint64(len(b))
	})

	if err := r.SetBytes("data", []byte("abcde")); err != nil {
		t.Fatal(err)
	}
	// Mutation alone must not touch the stored length.
	if v, _ := r.Uint("length"); v != 0 {
		t.Fatalf("length recomputed implicitly: %d", v)
	}
	r.CalcLength()
	if v, _ := r.Uint("length"); v != 5 {
		t.Errorf("length = %d, want 5", v)
	}
}

func TestUnknownFieldErrors(t *testing.T) {
	r := New("demo", U8("a"))
	if _, err := r.Uint("nope"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Uint: expected ErrUnknownField, got %v", err)
	}
	if err := r.SetUint("nope", 1); !errors.Is(err, ErrUnknownField) {
		t.Errorf("SetUint: expected ErrUnknownField, got %v", err)
	}
}

func TestFieldNamesExpandGroups(t *testing.T) {
	r := New("demo",
		Group("vi", 8, Sub("version", 4), Sub("ihl", 4)),
		U8("tos"),
	)
	want := []string{"version", "ihl", "tos"}
	got := r.FieldNames()
	if len(got) != len(want) {
		t.Fatalf("names %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names %v, want %v", got, want)
		}
	}
}
