package interfaces

import (
	keytool "github.com/overnest/strongsalt-keytool-go"
)

// KeyPairParams selects the size of a new key pair. RSA, DSA and ElGamal use
// KeySize; EC uses Curve.
type KeyPairParams struct {
	KeySize int
	Curve   string
}

type KeyPairCreator interface {
	CreateKeyPair(params KeyPairParams) (*keytool.KeyPair, error)
}

type KeyParser interface {
	GetKey(content []byte, keyType keytool.KeyType) (*keytool.AsymmetricKey, error)
}

type KeyPairVerifier interface {
	VerifyKeyPair(pair *keytool.KeyPair) bool
}

// PublicKeyDeriver recomputes the public half of a private key.
type PublicKeyDeriver interface {
	DerivePublicKey(private *keytool.AsymmetricKey) (*keytool.AsymmetricKey, error)
}

type KeyProvider interface {
	KeyPairCreator
	KeyParser
	KeyPairVerifier
	PublicKeyDeriver
	Cipher() *keytool.CipherType
}

type PrivateKeyParser interface {
	GetPrivateKey(content []byte) (*keytool.AsymmetricKey, error)
}

type PublicKeyParser interface {
	GetPublicKey(content []byte) (*keytool.AsymmetricKey, error)
}

// EncryptionGenerator turns a DER plaintext into an EncryptedPrivateKeyInfo.
type EncryptionGenerator interface {
	Encrypt(password string, salt []byte, iterations int, plaintext []byte) ([]byte, error)
}

type KdfBase interface {
	DeriveKey(password, salt []byte, iterations, keyLen int) ([]byte, error)
}
