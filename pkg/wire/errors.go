package wire

import (
	"errors"
	"fmt"
)

// ErrStructural marks any malformed-field condition: a buffer shorter
// than a field's declared width, a length source pointing past the end
// of the remaining buffer, a bit value that does not fit its slot.
// Specific sentinels below wrap it, so errors.Is(err, ErrStructural)
// matches every structural failure.
var ErrStructural = errors.New("stratum: malformed field")

var (
	// ErrTooShort reports a buffer shorter than the field's declared width.
	ErrTooShort = fmt.Errorf("%w: buffer too short", ErrStructural)

	// ErrBitOverflow reports a value that does not fit its declared bit width.
	ErrBitOverflow = fmt.Errorf("%w: value exceeds bit width", ErrStructural)
)
