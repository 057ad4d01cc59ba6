package torrent

import (
	"errors"

	"github.com/nham/deluge/bencode"
)

func fieldName(scope, key string) string {
	if scope == "" {
		return key
	}
	return scope + "." + key
}

func fieldError(name string, err error) *ParseError {
	if errors.Is(err, bencode.ErrFieldMissing) {
		return &ParseError{Field: name, Kind: ErrMissingField}
	}
	return &ParseError{Field: name, Kind: ErrInvalidField, Err: err}
}

func getField[T bencode.Value](scope, key string, source bencode.Dict) (T, error) {
	v, err := bencode.Field[T](source, key)
	if err != nil {
		return v, fieldError(fieldName(scope, key), err)
	}
	return v, nil
}

func getOptionalField[T bencode.Value](scope, key string, source bencode.Dict) (T, bool, error) {
	v, ok, err := bencode.OptionalField[T](source, key)
	if err != nil {
		return v, false, fieldError(fieldName(scope, key), err)
	}
	return v, ok, nil
}

func getOptionalString(scope, key string, source bencode.Dict) (*string, error) {
	v, ok, err := getOptionalField[bencode.String](scope, key, source)
	if err != nil || !ok {
		return nil, err
	}
	s := v.String()
	return &s, nil
}
