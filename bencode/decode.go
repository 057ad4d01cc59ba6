package bencode

import (
	"bytes"
	"math"
)

// MaxDepth bounds how deeply lists and dictionaries may nest.
const MaxDepth = 256

type decoder struct {
	data  []byte
	pos   int
	depth int
}

// Decode parses exactly one value from data. Any bytes left after the value
// are reported as ErrTrailingData. All failures are *DecodeError.
func Decode(data []byte) (Value, error) {
	d := &decoder{data: data}

	v, err := d.decodeValue()
	if err != nil {
		return nil, err
	}

	if d.pos != len(d.data) {
		return nil, d.fail(ErrTrailingData)
	}

	return v, nil
}

func (d *decoder) fail(err error) error {
	return &DecodeError{Offset: d.pos, Err: err}
}

func (d *decoder) failAt(offset int, err error) error {
	return &DecodeError{Offset: offset, Err: err}
}

func (d *decoder) done() bool {
	return d.pos >= len(d.data)
}

func (d *decoder) decodeValue() (Value, error) {
	if d.done() {
		return nil, d.fail(ErrTruncated)
	}

	switch c := d.data[d.pos]; {
	case c == 'i':
		return d.decodeInteger()
	case c >= '0' && c <= '9':
		return d.decodeString()
	case c == 'l':
		return d.decodeList()
	case c == 'd':
		return d.decodeDict()
	default:
		return nil, d.fail(ErrInvalidType)
	}
}

func (d *decoder) decodeInteger() (Integer, error) {
	start := d.pos
	d.pos++ // 'i'

	negative := false
	if !d.done() && d.data[d.pos] == '-' {
		negative = true
		d.pos++
	}

	digitsStart := d.pos
	for !d.done() && isDigit(d.data[d.pos]) {
		d.pos++
	}
	digits := d.data[digitsStart:d.pos]

	if d.done() {
		return 0, d.fail(ErrTruncated)
	}
	if d.data[d.pos] != 'e' {
		return 0, d.fail(ErrMalformedInteger)
	}

	switch {
	case len(digits) == 0:
		return 0, d.failAt(start, ErrMalformedInteger)
	case len(digits) > 1 && digits[0] == '0':
		return 0, d.failAt(start, ErrMalformedInteger)
	case negative && digits[0] == '0':
		return 0, d.failAt(start, ErrMalformedInteger)
	}

	n, ok := parseDigits(digits, negative)
	if !ok {
		return 0, d.failAt(start, ErrMalformedInteger)
	}

	d.pos++ // 'e'
	return Integer(n), nil
}

func (d *decoder) decodeString() (String, error) {
	start := d.pos
	for !d.done() && isDigit(d.data[d.pos]) {
		d.pos++
	}
	digits := d.data[start:d.pos]

	if d.done() {
		return nil, d.fail(ErrTruncated)
	}
	if d.data[d.pos] != ':' {
		return nil, d.fail(ErrMalformedLength)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return nil, d.failAt(start, ErrMalformedLength)
	}

	length, ok := parseDigits(digits, false)
	if !ok {
		return nil, d.failAt(start, ErrMalformedLength)
	}

	d.pos++ // ':'
	if length > int64(len(d.data)-d.pos) {
		return nil, d.failAt(start, ErrTruncated)
	}

	end := d.pos + int(length)
	s := String(bytes.Clone(d.data[d.pos:end]))
	d.pos = end

	return s, nil
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > MaxDepth {
		return d.fail(ErrTooDeep)
	}
	return nil
}

func (d *decoder) decodeList() (List, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	d.pos++ // 'l'
	list := make(List, 0)
	for {
		if d.done() {
			return nil, d.fail(ErrUnterminated)
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return list, nil
		}

		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
}

func (d *decoder) decodeDict() (Dict, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	d.pos++ // 'd'
	dict := make(Dict)
	for {
		if d.done() {
			return nil, d.fail(ErrUnterminated)
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return dict, nil
		}
		if !isDigit(d.data[d.pos]) {
			return nil, d.fail(ErrNonStringKey)
		}

		keyStart := d.pos
		key, err := d.decodeString()
		if err != nil {
			return nil, err
		}
		if _, ok := dict[string(key)]; ok {
			return nil, d.failAt(keyStart, ErrDuplicateKey)
		}

		if d.done() {
			return nil, d.fail(ErrUnterminated)
		}
		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		dict[string(key)] = v
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseDigits converts ASCII digits to an int64, reporting overflow.
func parseDigits(digits []byte, negative bool) (int64, bool) {
	if len(digits) == 0 {
		return 0, false
	}

	var n uint64
	for _, c := range digits {
		if n > (math.MaxUint64-9)/10 {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}

	if negative {
		if n > uint64(math.MaxInt64)+1 {
			return 0, false
		}
		return int64(-n), true
	}

	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}
