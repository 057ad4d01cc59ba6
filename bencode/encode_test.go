package bencode_test

import (
	"bufio"
	"bytes"
	"reflect"
	"testing"

	"github.com/joaovictorsl/bencoding"
	"github.com/nham/deluge/bencode"
)

func encodeAndAssert(t *testing.T, expected string, input bencode.Value) {
	t.Helper()
	encoded := string(bencode.Encode(input))
	if encoded != expected {
		t.Errorf("Expected %q but got %q", expected, encoded)
	}
}

func TestEncodeInteger(t *testing.T) {
	encodeAndAssert(t, "i123e", bencode.Integer(123))
	encodeAndAssert(t, "i-123e", bencode.Integer(-123))
	encodeAndAssert(t, "i0e", bencode.Integer(0))
}

func TestEncodeString(t *testing.T) {
	encodeAndAssert(t, "5:hello", bencode.String("hello"))
	encodeAndAssert(t, "0:", bencode.String(nil))
	encodeAndAssert(t, "2:\x00\xff", bencode.String{0x00, 0xff})
}

func TestEncodeList(t *testing.T) {
	encodeAndAssert(t, "li1ei2ei3ee", bencode.List{bencode.Integer(1), bencode.Integer(2), bencode.Integer(3)})
	encodeAndAssert(t, "le", bencode.List{})
	encodeAndAssert(t, "lli1eel9:test testeleee", bencode.List{
		bencode.List{bencode.Integer(1)},
		bencode.List{bencode.String("test test")},
		bencode.List{},
	})
}

func TestEncodeDictionary(t *testing.T) {
	encodeAndAssert(t, "d3:key5:valuee", bencode.Dict{"key": bencode.String("value")})
	encodeAndAssert(t, "d4:dictd9:space keyi4eee", bencode.Dict{
		"dict": bencode.Dict{"space key": bencode.Integer(4)},
	})
	encodeAndAssert(t, "de", bencode.Dict{})
}

func TestEncodeSortsKeysByRawBytes(t *testing.T) {
	d := bencode.Dict{
		"piece length": bencode.Integer(1),
		"name":         bencode.String("n"),
		"Z":            bencode.Integer(2),
		"\xff":         bencode.Integer(3),
		"a":            bencode.Integer(4),
		"ab":           bencode.Integer(5),
	}
	encodeAndAssert(t, "d1:Zi2e1:ai4e2:abi5e4:name1:n12:piece lengthi1e1:\xffi3ee", d)
}

func TestEncodeSkipsNil(t *testing.T) {
	encodeAndAssert(t, "d1:bi1ee", bencode.Dict{"a": nil, "b": bencode.Integer(1)})
	encodeAndAssert(t, "li1ee", bencode.List{nil, bencode.Integer(1)})
	encodeAndAssert(t, "", nil)
}

func TestRoundTrip(t *testing.T) {
	values := []bencode.Value{
		bencode.Integer(-42),
		bencode.String("\x00\x01binary\x2f"),
		bencode.List{},
		bencode.Dict{},
		bencode.List{bencode.Dict{"x": bencode.List{bencode.Integer(0)}}, bencode.String("y")},
		bencode.Dict{
			"info": bencode.Dict{
				"files": bencode.List{
					bencode.Dict{"length": bencode.Integer(3), "path": bencode.List{bencode.String("a"), bencode.String("b")}},
				},
				"name":         bencode.String("dir"),
				"piece length": bencode.Integer(16384),
				"pieces":       bencode.String(bytes.Repeat([]byte{0xaa}, 20)),
			},
			"announce": bencode.String("http://tracker.test/announce"),
		},
	}

	for _, v := range values {
		encoded := bencode.Encode(v)
		decoded, err := bencode.Decode(encoded)
		if err != nil {
			t.Fatalf("decode(encode(%#v)): %v", v, err)
		}
		if !reflect.DeepEqual(normalize(decoded), normalize(v)) {
			t.Errorf("round trip mismatch:\nwant %#v\ngot  %#v", v, decoded)
		}
		if again := bencode.Encode(decoded); !bytes.Equal(again, encoded) {
			t.Errorf("re-encoding is not stable: %q vs %q", again, encoded)
		}
	}
}

// normalize maps empty strings to a single representation so nil and empty
// byte strings compare equal.
func normalize(v bencode.Value) bencode.Value {
	switch v := v.(type) {
	case bencode.String:
		if len(v) == 0 {
			return bencode.String{}
		}
		return v
	case bencode.List:
		out := make(bencode.List, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case bencode.Dict:
		out := make(bencode.Dict, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}
		return out
	}
	return v
}

func TestEncodeReadableByThirdPartyDecoder(t *testing.T) {
	encoded := bencode.Encode(bencode.Dict{
		"name":         bencode.String("a.txt"),
		"length":       bencode.Integer(10),
		"piece length": bencode.Integer(10),
		"path":         bencode.List{bencode.String("dir"), bencode.String("a.txt")},
	})

	data, err := bencoding.DecodeTo[map[string]interface{}](bufio.NewReader(bytes.NewReader(encoded)))
	if err != nil {
		t.Fatalf("third-party decoder rejected %q: %v", encoded, err)
	}

	if name, _ := data["name"].(string); name != "a.txt" {
		t.Errorf("expected name a.txt, got %#v", data["name"])
	}
	if length, _ := data["length"].(int); length != 10 {
		t.Errorf("expected length 10, got %#v", data["length"])
	}
	path, _ := data["path"].([]interface{})
	if len(path) != 2 {
		t.Errorf("expected two path segments, got %#v", data["path"])
	}
}
