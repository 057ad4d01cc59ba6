package bencode

import (
	"slices"
	"strconv"
)

// Encode returns the canonical encoding of v. Dictionary keys are emitted in
// ascending byte order. Nil values inside lists and dictionaries are skipped.
func Encode(v Value) []byte {
	return AppendEncode(nil, v)
}

// AppendEncode appends the canonical encoding of v to dst.
func AppendEncode(dst []byte, v Value) []byte {
	switch v := v.(type) {
	case Integer:
		dst = append(dst, 'i')
		dst = strconv.AppendInt(dst, int64(v), 10)
		return append(dst, 'e')

	case String:
		return appendString(dst, v)

	case List:
		dst = append(dst, 'l')
		for _, item := range v {
			if item == nil {
				continue
			}
			dst = AppendEncode(dst, item)
		}
		return append(dst, 'e')

	case Dict:
		keys := make([]string, 0, len(v))
		for k, item := range v {
			if item == nil {
				continue
			}
			keys = append(keys, k)
		}
		// Go string comparison is bytewise, which is the order bencode requires.
		slices.Sort(keys)

		dst = append(dst, 'd')
		for _, k := range keys {
			dst = appendString(dst, String(k))
			dst = AppendEncode(dst, v[k])
		}
		return append(dst, 'e')
	}

	return dst
}

func appendString(dst []byte, s String) []byte {
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, ':')
	return append(dst, s...)
}
