package packet

import "firestige.xyz/stratum/pkg/record"

// RawName is the protocol name of the fallback placeholder header.
const RawName = "raw"

// Raw is the typed placeholder holding bytes no registered header class
// could claim. Parse degrades to it instead of letting a structural
// error escape into a capture loop.
type Raw struct {
	*record.Record
}

// NewRaw returns an empty placeholder header.
func NewRaw() *Raw {
	return &Raw{record.New(RawName, record.Bytes("data"))}
}

// NewRawBytes returns a placeholder wrapping b.
func NewRawBytes(b []byte) *Raw {
	r := NewRaw()
	if err := r.SetBytes("data", b); err != nil {
		panic("stratum: raw header rejected bytes: " + err.Error())
	}
	return r
}
