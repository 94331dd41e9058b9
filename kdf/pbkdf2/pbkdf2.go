package pbkdf2

import (
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/overnest/strongsalt-keytool-go/hashtype"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
)

const (
	DefaultIter = 10000
)

var (
	defaultHashType = hashtype.TypeSha256
)

// Pbkdf2 is the PKCS#5 v2.0 key derivation function over an HMAC PRF.
type Pbkdf2 struct {
	hashType *hashtype.HashType
}

func New(hashType *hashtype.HashType) KdfBase {
	if hashType == nil {
		hashType = defaultHashType
	}
	return &Pbkdf2{hashType: hashType}
}

func (k *Pbkdf2) DeriveKey(password, salt []byte, iterations, keyLen int) ([]byte, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("PBKDF2 iteration count must be positive, got %v", iterations)
	}
	if keyLen < 1 {
		return nil, fmt.Errorf("PBKDF2 key length must be positive, got %v", keyLen)
	}
	return pbkdf2.Key(password, salt, iterations, keyLen, k.hashType.HashFunc), nil
}
