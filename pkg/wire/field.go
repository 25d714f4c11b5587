// Package wire implements the primitive fixed-width field codecs that
// composite records are assembled from: unsigned/signed integers of
// 1/2/3/4/8 bytes in big or little endian order, and byte-string fields
// that are fixed-length, externally sized or NUL-terminated.
//
// Every codec obeys the round-trip law: Read(Serialize(x)) yields x
// again, and Serialize(Read(b)) reproduces b for any well-formed b of
// the declared width.
package wire

// Field is the capability a value must provide to live inside a record:
// decode itself from the front of a buffer, append its exact wire form
// to a buffer, and render a human-readable form.
type Field interface {
	// Read decodes the field from the front of b and returns the number
	// of bytes consumed.
	Read(b []byte) (int, error)
	// Serialize appends the field's wire representation to dst and
	// returns the extended slice.
	Serialize(dst []byte) []byte
	// Size reports how many bytes Serialize will append.
	Size() int
	// Human returns the human-readable form of the current value.
	Human() string
}

// HumanSetter is implemented by fields that can parse their value back
// from the form Human produces. Integer fields accept decimal or 0x-hex;
// specialised fields (MAC addresses, IPs) accept their display notation.
type HumanSetter interface {
	SetHuman(s string) error
}
