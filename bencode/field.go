package bencode

import (
	"errors"
	"fmt"
)

var (
	ErrFieldMissing = errors.New("field missing")
)

// FieldTypeError reports a key that is present but holds the wrong variant.
type FieldTypeError struct {
	Field string
	Want  Kind
	Got   Kind
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s is not a %v, it is a %v", e.Field, e.Want, e.Got)
}

// Field looks up key in d and asserts its variant. An absent key yields
// ErrFieldMissing; a key of the wrong variant yields *FieldTypeError.
func Field[T Value](d Dict, key string) (T, error) {
	var zero T
	v, ok := d[key]
	if !ok || v == nil {
		return zero, ErrFieldMissing
	}

	t, ok := v.(T)
	if !ok {
		return zero, &FieldTypeError{Field: key, Want: zero.Kind(), Got: v.Kind()}
	}

	return t, nil
}

// OptionalField is like Field but reports an absent key as ok == false with
// a nil error.
func OptionalField[T Value](d Dict, key string) (T, bool, error) {
	t, err := Field[T](d, key)
	if errors.Is(err, ErrFieldMissing) {
		return t, false, nil
	}
	if err != nil {
		return t, false, err
	}

	return t, true, nil
}
