package util

import "crypto/sha1"

// CalcHash returns the SHA-1 digest of b.
func CalcHash(b []byte) [sha1.Size]byte {
	h := sha1.New()
	h.Write(b)

	var sum [sha1.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
