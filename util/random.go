package util

import (
	"crypto/rand"
	"fmt"
)

const printable = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RandomPrintable returns n random alphanumeric bytes read from crypto/rand.
func RandomPrintable(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)

	// Bytes >= 248 are dropped so every symbol is equally likely.
	limit := byte(256 - 256%len(printable))
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, printable[int(b)%len(printable)])
			if len(out) == n {
				break
			}
		}
	}

	return out, nil
}
