package utils

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// PaddedBytes returns n as a big-endian byte slice of exactly length bytes,
// zero-padded on the left. Values wider than length keep their low bytes.
func PaddedBytes(n *big.Int, length int) []byte {
	b := n.Bytes()
	if len(b) >= length {
		return b[len(b)-length:]
	}
	padded := make([]byte, length)
	copy(padded[length-len(b):], b)
	return padded
}

// RandomBytes reads n bytes from the system's secure random source.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	read, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		return nil, err
	}
	if read != len(b) {
		return nil, fmt.Errorf("Wrong number of random bytes read")
	}
	return b, nil
}

// IsZero treats a nil integer as zero.
func IsZero(n *big.Int) bool {
	return n == nil || n.Sign() == 0
}

// EqualInts treats two nil integers as equal.
func EqualInts(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}
