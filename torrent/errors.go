package torrent

import (
	"errors"
	"fmt"
)

var (
	ErrRead         = errors.New("reading torrent file")
	ErrDecode       = errors.New("decoding torrent file")
	ErrMalformed    = errors.New("malformed metainfo")
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

// ParseError describes why a metainfo could not be loaded. Kind is one of the
// package sentinels and Err, when set, is the underlying cause.
type ParseError struct {
	// Dotted path of the offending key, e.g. "info.files[1].path". Empty
	// when the failure is not about a single field.
	Field string
	Kind  error
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "metainfo: " + msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalid(field string, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Kind: ErrInvalidField, Err: fmt.Errorf(format, args...)}
}
