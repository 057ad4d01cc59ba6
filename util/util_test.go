package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"
)

func TestCalcHash(t *testing.T) {
	got := CalcHash([]byte("abc"))
	if hex.EncodeToString(got[:]) != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Errorf("unexpected digest %x", got)
	}
	if got != sha1.Sum([]byte("abc")) {
		t.Error("CalcHash disagrees with sha1.Sum")
	}
}

func TestRandomPrintable(t *testing.T) {
	for _, n := range []int{0, 1, 12, 100} {
		b, err := RandomPrintable(n)
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != n {
			t.Fatalf("expected %d bytes, got %d", n, len(b))
		}
		for _, c := range b {
			if !strings.ContainsRune(printable, rune(c)) {
				t.Fatalf("byte %q is not alphanumeric", c)
			}
		}
	}
}
