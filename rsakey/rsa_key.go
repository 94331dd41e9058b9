package rsakey

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
)

const (
	MinKeySize = 1024
	MaxKeySize = 16384
)

type Provider struct {
	log *zap.Logger
}

func New() *Provider {
	return &Provider{log: logger.Named("rsa")}
}

func (p *Provider) Cipher() *keytool.CipherType {
	return keytool.Cipher_RSA
}

func (p *Provider) CreateKeyPair(params KeyPairParams) (*keytool.KeyPair, error) {
	if params.Curve != "" {
		return nil, fmt.Errorf("%w: RSA key must be defined by key size", keytool.ErrInvalidArgument)
	}
	if params.KeySize < MinKeySize || params.KeySize > MaxKeySize {
		return nil, fmt.Errorf("%w: RSA key size must be between %d and %d bits, got %d",
			keytool.ErrInvalidArgument, MinKeySize, MaxKeySize, params.KeySize)
	}
	priv, err := rsa.GenerateKey(rand.Reader, params.KeySize)
	if err != nil {
		return nil, err
	}
	p.log.Debug("generated key pair", zap.Int("key_size", params.KeySize))
	return FromRsaKey(priv)
}

// FromRsaKey wraps a crypto/rsa key pair in the toolkit's key model.
func FromRsaKey(priv *rsa.PrivateKey) (*keytool.KeyPair, error) {
	privDer, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pubDer, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	size := priv.N.BitLen()
	private, err := keytool.NewKey(keytool.Cipher_RSA, keytool.KeyTypePrivate, privDer, size)
	if err != nil {
		return nil, err
	}
	public, err := keytool.NewKey(keytool.Cipher_RSA, keytool.KeyTypePublic, pubDer, size)
	if err != nil {
		return nil, err
	}
	return keytool.NewKeyPair(private, public)
}

func (p *Provider) GetKey(content []byte, keyType keytool.KeyType) (*keytool.AsymmetricKey, error) {
	switch keyType {
	case keytool.KeyTypePrivate:
		priv, err := ParsePrivateKey(content)
		if err != nil {
			if _, pubErr := ParsePublicKey(content); pubErr == nil {
				return nil, fmt.Errorf("%w: expected RSA private key, got public key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewKey(keytool.Cipher_RSA, keytool.KeyTypePrivate, content, priv.N.BitLen())
	case keytool.KeyTypePublic:
		pub, err := ParsePublicKey(content)
		if err != nil {
			if _, privErr := ParsePrivateKey(content); privErr == nil {
				return nil, fmt.Errorf("%w: expected RSA public key, got private key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewKey(keytool.Cipher_RSA, keytool.KeyTypePublic, content, pub.N.BitLen())
	}
	return nil, fmt.Errorf("%w: cannot read %v key as RSA", keytool.ErrKeyTypeMismatch, keyType)
}

func (p *Provider) DerivePublicKey(private *keytool.AsymmetricKey) (*keytool.AsymmetricKey, error) {
	if private == nil || private.Cipher != keytool.Cipher_RSA || !private.IsPrivateKey() {
		return nil, fmt.Errorf("%w: public key can only be derived from an RSA private key", keytool.ErrKeyTypeMismatch)
	}
	priv, err := ParsePrivateKey(private.Content)
	if err != nil {
		return nil, err
	}
	pair, err := FromRsaKey(priv)
	if err != nil {
		return nil, err
	}
	return pair.Public, nil
}

// VerifyKeyPair checks that both halves share the modulus.
func (p *Provider) VerifyKeyPair(pair *keytool.KeyPair) bool {
	if pair == nil || pair.Private == nil || pair.Public == nil {
		return false
	}
	priv, err := ParsePrivateKey(pair.Private.Content)
	if err != nil {
		return false
	}
	pub, err := ParsePublicKey(pair.Public.Content)
	if err != nil {
		return false
	}
	return priv.N.Cmp(pub.N) == 0
}

func ParsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", keytool.ErrInvalidKey)
	}
	return priv, nil
}

func ParsePublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", keytool.ErrInvalidKey)
	}
	return pub, nil
}
