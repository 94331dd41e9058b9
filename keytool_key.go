package keytool

import (
	"fmt"
	"strings"
)

/*
** CIPHER TYPES
 */

const (
	// Curve25519Name is the canonical name used for curve25519 EC keys.
	Curve25519Name = "curve25519"
)

var (
	Cipher_RSA             = newCipherType("RSA", false)
	Cipher_DSA             = newCipherType("DSA", false)
	Cipher_EC              = newCipherType("EC", false)
	Cipher_ElGamal         = newCipherType("ELGAMAL", false)
	Cipher_Pkcs5Encrypted  = newCipherType("PKCS5ENCRYPTED", true)
	Cipher_Pkcs12Encrypted = newCipherType("PKCS12ENCRYPTED", true)
	Cipher_AesEncrypted    = newCipherType("AESENCRYPTED", true)
	Cipher_Unknown         = newCipherType("UNKNOWN", false)
)

// CipherType classifies a key by algorithm, or by the scheme protecting it
// when the key is encrypted. Values are compared by pointer.
type CipherType struct {
	Name      string
	Encrypted bool
}

var cipherTypeMap map[string]*CipherType = make(map[string]*CipherType)

func newCipherType(name string, encrypted bool) *CipherType {
	cipherType := &CipherType{name, encrypted}
	cipherTypeMap[name] = cipherType
	return cipherType
}

func (c *CipherType) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}

// CipherTypeFromName returns nil when no cipher type has that name.
func CipherTypeFromName(name string) *CipherType {
	return cipherTypeMap[strings.ToUpper(strings.TrimSpace(name))]
}

/*
** KEY TYPES
 */

type KeyType int

const (
	KeyTypePublic KeyType = iota + 1
	KeyTypePrivate
	KeyTypeEncrypted
)

func (t KeyType) String() string {
	switch t {
	case KeyTypePublic:
		return "Public"
	case KeyTypePrivate:
		return "Private"
	case KeyTypeEncrypted:
		return "Encrypted"
	}
	return "Unknown"
}

/*
** MAIN
 */

// AsymmetricKey is a DER encoded key tagged with its cipher type.
//
// Content is a PKCS#8 PrivateKeyInfo for private keys, a SubjectPublicKeyInfo
// for public keys and an EncryptedPrivateKeyInfo for encrypted keys.
// Password is advisory: it is carried for a later decryption step and is
// never part of Content.
type AsymmetricKey struct {
	Content   []byte
	Type      KeyType
	KeySize   int
	Cipher    *CipherType
	Password  string
	CurveName string
}

func NewKey(cipher *CipherType, keyType KeyType, content []byte, keySize int) (*AsymmetricKey, error) {
	if cipher == nil || cipher == Cipher_Unknown {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKeyType, cipher)
	}
	if cipher.Encrypted || keyType == KeyTypeEncrypted {
		return nil, fmt.Errorf("%w: use NewEncryptedKey for encrypted content", ErrInvalidArgument)
	}
	if cipher == Cipher_EC {
		return nil, fmt.Errorf("%w: EC keys need a curve name", ErrInvalidArgument)
	}
	return newKey(cipher, keyType, content, keySize), nil
}

func NewEcKey(keyType KeyType, content []byte, keySize int, curveName string) (*AsymmetricKey, error) {
	if keyType == KeyTypeEncrypted {
		return nil, fmt.Errorf("%w: use NewEncryptedKey for encrypted content", ErrInvalidArgument)
	}
	if curveName == "" {
		return nil, fmt.Errorf("%w: EC keys need a curve name", ErrInvalidArgument)
	}
	key := newKey(Cipher_EC, keyType, content, keySize)
	key.CurveName = curveName
	return key, nil
}

func NewEncryptedKey(cipher *CipherType, content []byte, password string) (*AsymmetricKey, error) {
	if cipher == nil || !cipher.Encrypted {
		return nil, fmt.Errorf("%w: %v is not an encryption scheme", ErrUnsupportedKeyType, cipher)
	}
	key := newKey(cipher, KeyTypeEncrypted, content, 0)
	key.Password = password
	return key, nil
}

func newKey(cipher *CipherType, keyType KeyType, content []byte, keySize int) *AsymmetricKey {
	c := make([]byte, len(content))
	copy(c, content)
	return &AsymmetricKey{
		Content: c,
		Type:    keyType,
		KeySize: keySize,
		Cipher:  cipher,
	}
}

func (k *AsymmetricKey) IsPrivateKey() bool {
	return k.Type == KeyTypePrivate
}

func (k *AsymmetricKey) IsEncrypted() bool {
	return k.Type == KeyTypeEncrypted
}

func (k *AsymmetricKey) IsCurve25519() bool {
	return k.Cipher == Cipher_EC && strings.EqualFold(k.CurveName, Curve25519Name)
}

// WithPassword returns a copy of the key carrying the given advisory password.
func (k *AsymmetricKey) WithPassword(password string) *AsymmetricKey {
	c := *k
	c.Content = append([]byte(nil), k.Content...)
	c.Password = password
	return &c
}

func (k *AsymmetricKey) String() string {
	if k.Cipher == Cipher_EC {
		return fmt.Sprintf("%v %v key (%v, %d bits)", k.Cipher, k.Type, k.CurveName, k.KeySize)
	}
	return fmt.Sprintf("%v %v key (%d bits)", k.Cipher, k.Type, k.KeySize)
}

/*
** PAIRS AND SIGNATURES
 */

// KeyPair holds a private and a public key of the same cipher. Whether they
// belong together mathematically is only known after verification.
type KeyPair struct {
	Private *AsymmetricKey
	Public  *AsymmetricKey
}

func NewKeyPair(private, public *AsymmetricKey) (*KeyPair, error) {
	if private == nil || public == nil {
		return nil, fmt.Errorf("%w: key pair needs both keys", ErrInvalidArgument)
	}
	if !private.IsPrivateKey() {
		return nil, fmt.Errorf("%w: first key of a pair must be private", ErrKeyTypeMismatch)
	}
	if public.Type != KeyTypePublic {
		return nil, fmt.Errorf("%w: second key of a pair must be public", ErrKeyTypeMismatch)
	}
	if private.Cipher != public.Cipher {
		return nil, fmt.Errorf("%w: %v private key with %v public key", ErrKeyTypeMismatch, private.Cipher, public.Cipher)
	}
	return &KeyPair{Private: private, Public: public}, nil
}

func (p *KeyPair) Cipher() *CipherType {
	if p == nil || p.Private == nil {
		return Cipher_Unknown
	}
	return p.Private.Cipher
}

type Signature struct {
	Content    []byte
	SignedData []byte
}
