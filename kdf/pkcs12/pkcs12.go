// Package pkcs12 implements the key derivation function of RFC 7292
// appendix B, used by the PKCS#12 password based encryption schemes.
package pkcs12

import (
	"fmt"
	"unicode/utf16"

	"github.com/overnest/strongsalt-keytool-go/hashtype"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
)

// Diversifier IDs
const (
	KeyMaterial byte = 1
	IvMaterial  byte = 2
)

// Pkcs12 derives key or IV material, selected by id.
type Pkcs12 struct {
	hashType *hashtype.HashType
	id       byte
}

func New(hashType *hashtype.HashType, id byte) KdfBase {
	if hashType == nil {
		hashType = hashtype.TypeSha1
	}
	return &Pkcs12{hashType: hashType, id: id}
}

// DeriveKey takes the password as UTF-8 and converts it to the BMPString
// form the algorithm is defined over.
func (k *Pkcs12) DeriveKey(password, salt []byte, iterations, keyLen int) ([]byte, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("PKCS12 iteration count must be positive, got %v", iterations)
	}
	if keyLen < 1 {
		return nil, fmt.Errorf("PKCS12 key length must be positive, got %v", keyLen)
	}
	return Derive(k.hashType, BMPPassword(string(password)), salt, k.id, iterations, keyLen), nil
}

// BMPPassword encodes a password as a NUL terminated big-endian UTF-16
// string. The empty password encodes to no bytes at all.
func BMPPassword(password string) []byte {
	if len(password) == 0 {
		return []byte{}
	}
	units := utf16.Encode([]rune(password))
	out := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		out = append(out, byte(u>>8), byte(u))
	}
	return append(out, 0, 0)
}

// Derive implements RFC 7292 B.2. password must already be a BMPString.
func Derive(hashType *hashtype.HashType, password, salt []byte, id byte, iterations, size int) []byte {
	u := hashType.Size()
	v := hashType.BlockSize()

	d := make([]byte, v)
	for i := range d {
		d[i] = id
	}

	s := fillBlocks(salt, v)
	p := fillBlocks(password, v)
	block := append(s, p...)

	out := make([]byte, 0, size+u)
	rounds := (size + u - 1) / u
	for i := 1; i <= rounds; i++ {
		h := hashType.HashFunc()
		h.Write(d)
		h.Write(block)
		a := h.Sum(nil)
		for j := 1; j < iterations; j++ {
			h = hashType.HashFunc()
			h.Write(a)
			a = h.Sum(nil)
		}
		out = append(out, a...)

		if i < rounds {
			b := make([]byte, v)
			for j := range b {
				b[j] = a[j%len(a)]
			}
			for j := 0; j < len(block); j += v {
				addOne(block[j:j+v], b)
			}
		}
	}
	return out[:size]
}

// fillBlocks repeats in until it fills a whole number of v-byte blocks.
func fillBlocks(in []byte, v int) []byte {
	if len(in) == 0 {
		return []byte{}
	}
	n := v * ((len(in) + v - 1) / v)
	out := make([]byte, n)
	for i := range out {
		out[i] = in[i%len(in)]
	}
	return out
}

// addOne sets dst = (dst + b + 1) mod 2^(8*len(dst)).
func addOne(dst, b []byte) {
	carry := 1
	for i := len(dst) - 1; i >= 0; i-- {
		sum := int(dst[i]) + int(b[i]) + carry
		dst[i] = byte(sum)
		carry = sum >> 8
	}
}
