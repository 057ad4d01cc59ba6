// Package bencode implements the BitTorrent serialization format as a
// generic value tree.
//
// Decoding accepts dictionaries in any key order. Encoding always emits the
// canonical form, with dictionary keys sorted by raw bytes, so that hashing
// an encoded value is deterministic.
package bencode

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindInteger Kind = iota
	KindString
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "byte string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	default:
		return "unknown"
	}
}

// Value is a decoded bencode value. It is implemented only by Integer,
// String, List and Dict.
type Value interface {
	Kind() Kind
	value()
}

// Integer is a bencoded integer (i<digits>e).
type Integer int64

// String is a bencoded byte string. It holds raw bytes, which are not
// required to be valid UTF-8.
type String []byte

// List is an ordered sequence of values.
type List []Value

// Dict maps raw key bytes to values.
type Dict map[string]Value

func (Integer) Kind() Kind { return KindInteger }
func (String) Kind() Kind  { return KindString }
func (List) Kind() Kind    { return KindList }
func (Dict) Kind() Kind    { return KindDict }

func (Integer) value() {}
func (String) value()  {}
func (List) value()    {}
func (Dict) value()    {}

func (s String) String() string {
	return string(s)
}
