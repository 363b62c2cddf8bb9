package cbor

import (
	"errors"
	"fmt"
)

// Sentinel errors, following the taxonomy this module's CBOR codec has
// always used: errors.Is-comparable values, wrapped with positional detail
// by DecodeError where a byte offset is meaningful.
var (
	// ErrInvalidCbor is returned for any decode-time parse failure: premature
	// end of input, an invalid additional-information code, a simple value
	// that is neither a boolean nor a float, or invalid UTF-8 in a text
	// string.
	ErrInvalidCbor = errors.New("cbor: invalid CBOR data")

	// ErrUnsupported is returned for well-formed-but-unimplemented CBOR:
	// major type 6 (tags), floats, indefinite-length items, and the break
	// byte. CTAP2 canonical CBOR never emits these, so they only arise from
	// malicious or buggy input.
	ErrUnsupported = errors.New("cbor: unsupported construct")

	// ErrOutOfRange is returned by Encode when an integer value cannot be
	// represented in the 64-bit unsigned-or-negative CBOR integer space.
	ErrOutOfRange = errors.New("cbor: integer out of representable range")

	// ErrDuplicateKey is returned when a map being encoded or decoded
	// contains the same logical key twice.
	ErrDuplicateKey = errors.New("cbor: duplicate map key")

	// ErrInvalidUtf8 is returned when a text string's payload is not valid
	// UTF-8; Decode validates eagerly rather than deferring validation to
	// the caller. It is wrapped alongside ErrInvalidCbor, so
	// errors.Is(err, ErrInvalidCbor) holds for it too.
	ErrInvalidUtf8 = errors.New("cbor: invalid UTF-8 in text string")
)

// DecodeError reports a decode failure together with the byte offset at
// which it was detected, to aid diagnostics.
type DecodeError struct {
	Err    error
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cbor: at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(err error, offset int) *DecodeError {
	return &DecodeError{Err: err, Offset: offset}
}
