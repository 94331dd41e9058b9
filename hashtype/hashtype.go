package hashtype

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"fmt"
	"hash"

	"github.com/overnest/strongsalt-keytool-go/oid"
)

// HashType pairs a hash function with the OID of its HMAC, which is how
// PBKDF2 names its pseudo-random function.
type HashType struct {
	Name     string
	HashFunc func() hash.Hash
	HmacOID  asn1.ObjectIdentifier
}

var (
	hashTypeMap map[string]*HashType = make(map[string]*HashType)

	TypeSha1   *HashType = newHashType("sha1", sha1.New, oid.HmacWithSha1)
	TypeSha256 *HashType = newHashType("sha256", sha256.New, oid.HmacWithSha256)
	TypeSha512 *HashType = newHashType("sha512", sha512.New, oid.HmacWithSha512)
)

func newHashType(name string, hashFunc func() hash.Hash, hmacOID asn1.ObjectIdentifier) *HashType {
	hashType := &HashType{name, hashFunc, hmacOID}
	hashTypeMap[name] = hashType
	return hashType
}

// Size is the digest length in bytes.
func (h *HashType) Size() int {
	return h.HashFunc().Size()
}

// BlockSize is the input block length in bytes.
func (h *HashType) BlockSize() int {
	return h.HashFunc().BlockSize()
}

// FromHmacOID resolves a PBKDF2 PRF identifier. An empty identifier means the
// RFC 8018 default, HMAC-SHA1.
func FromHmacOID(id asn1.ObjectIdentifier) (*HashType, error) {
	if len(id) == 0 {
		return TypeSha1, nil
	}
	for _, hashType := range hashTypeMap {
		if hashType.HmacOID.Equal(id) {
			return hashType, nil
		}
	}
	return nil, fmt.Errorf("Cannot find hash type for PRF %v.", id)
}
