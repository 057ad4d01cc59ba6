package bencode

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated        = errors.New("truncated input")
	ErrMalformedLength  = errors.New("malformed length prefix")
	ErrMalformedInteger = errors.New("malformed integer")
	ErrNonStringKey     = errors.New("dictionary key is not a byte string")
	ErrUnterminated     = errors.New("unterminated container")
	ErrDuplicateKey     = errors.New("duplicate dictionary key")
	ErrInvalidType      = errors.New("invalid value type")
	ErrTrailingData     = errors.New("trailing data after value")
	ErrTooDeep          = errors.New("nesting too deep")
)

// DecodeError reports where and why decoding failed. Err is one of the
// sentinel errors declared in this package.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bencode: %v at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
