// Package record implements composite binary records: ordered, named
// collections of wire fields with bit-packed groups, enumerated values,
// derived defaults, length-sourced widths, repeating sequences and
// Type-Length-Value schemas.
package record

import "errors"

var (
	// ErrUnknownField reports a field name not declared on the record.
	ErrUnknownField = errors.New("stratum: unknown field")

	// ErrUnknownEnum reports a symbolic name missing from a field's enum table.
	ErrUnknownEnum = errors.New("stratum: unknown enum symbol")

	// ErrFieldType reports an access that does not match the field's kind,
	// such as an integer read of a byte-string field.
	ErrFieldType = errors.New("stratum: field type mismatch")
)
