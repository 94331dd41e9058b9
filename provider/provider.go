// Package provider routes encoded keys to the typed key provider their
// algorithm identifier names.
package provider

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/dsakey"
	"github.com/overnest/strongsalt-keytool-go/eckey"
	"github.com/overnest/strongsalt-keytool-go/elgamalkey"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/oid"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
	"github.com/overnest/strongsalt-keytool-go/rsakey"
	"github.com/overnest/strongsalt-keytool-go/sec1"
)

type AsymmetricKeyProvider struct {
	providers map[*keytool.CipherType]KeyProvider
	log       *zap.Logger
}

func New() *AsymmetricKeyProvider {
	p := &AsymmetricKeyProvider{
		providers: make(map[*keytool.CipherType]KeyProvider),
		log:       logger.Named("provider"),
	}
	p.Register(rsakey.New())
	p.Register(dsakey.New())
	p.Register(eckey.New())
	p.Register(elgamalkey.New())
	return p
}

// Register replaces any provider already registered for the same cipher.
func (p *AsymmetricKeyProvider) Register(provider KeyProvider) {
	p.providers[provider.Cipher()] = provider
}

func (p *AsymmetricKeyProvider) Provider(cipher *keytool.CipherType) (KeyProvider, error) {
	provider, ok := p.providers[cipher]
	if !ok {
		return nil, fmt.Errorf("%w: %v", keytool.ErrUnsupportedKeyType, cipher)
	}
	return provider, nil
}

func (p *AsymmetricKeyProvider) CreateKeyPair(cipher *keytool.CipherType, params KeyPairParams) (*keytool.KeyPair, error) {
	provider, err := p.Provider(cipher)
	if err != nil {
		return nil, err
	}
	pair, err := provider.CreateKeyPair(params)
	if err != nil {
		return nil, err
	}
	p.log.Info("created key pair", zap.Stringer("cipher", cipher), zap.Int("key_size", pair.Public.KeySize))
	return pair, nil
}

func (p *AsymmetricKeyProvider) GetPublicKey(content []byte) (*keytool.AsymmetricKey, error) {
	info, err := pkcs8.ParseSubjectPublicKeyInfo(content)
	if err != nil {
		return nil, err
	}
	provider, err := p.Provider(oid.CipherTypeOf(info.Algorithm))
	if err != nil {
		return nil, err
	}
	return provider.GetKey(content, keytool.KeyTypePublic)
}

// GetPrivateKey reports a structure that does not hold the private key its
// identifier promises as an invalid key.
func (p *AsymmetricKeyProvider) GetPrivateKey(content []byte) (*keytool.AsymmetricKey, error) {
	info, err := pkcs8.ParsePrivateKeyInfo(content)
	if err != nil {
		return nil, err
	}
	provider, err := p.Provider(oid.CipherTypeOf(info.Algorithm))
	if err != nil {
		return nil, err
	}
	key, err := provider.GetKey(content, keytool.KeyTypePrivate)
	if errors.Is(err, keytool.ErrKeyTypeMismatch) {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	return key, err
}

// GetEncryptedPrivateKey classifies an EncryptedPrivateKeyInfo without
// decrypting it.
func (p *AsymmetricKeyProvider) GetEncryptedPrivateKey(content []byte) (*keytool.AsymmetricKey, error) {
	info, err := pkcs8.ParseEncryptedPrivateKeyInfo(content)
	if err != nil {
		return nil, err
	}
	cipher := oid.CipherTypeOf(info.EncryptionAlgorithm)
	if !cipher.Encrypted {
		return nil, fmt.Errorf("%w: encryption algorithm %v", keytool.ErrUnsupportedKeyType, info.EncryptionAlgorithm.Algorithm)
	}
	return keytool.NewEncryptedKey(cipher, content, "")
}

func (p *AsymmetricKeyProvider) GetKey(content []byte, keyType keytool.KeyType) (*keytool.AsymmetricKey, error) {
	switch keyType {
	case keytool.KeyTypePublic:
		return p.GetPublicKey(content)
	case keytool.KeyTypePrivate:
		return p.GetPrivateKey(content)
	case keytool.KeyTypeEncrypted:
		return p.GetEncryptedPrivateKey(content)
	}
	return nil, fmt.Errorf("%w: key type %v", keytool.ErrInvalidArgument, keyType)
}

// GetKeyFromDer tries the private, public and encrypted structures in turn.
func (p *AsymmetricKeyProvider) GetKeyFromDer(content []byte) (*keytool.AsymmetricKey, error) {
	for _, keyType := range []keytool.KeyType{keytool.KeyTypePrivate, keytool.KeyTypePublic, keytool.KeyTypeEncrypted} {
		key, err := p.GetKey(content, keyType)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, keytool.ErrInvalidKey) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: content is not a PKCS#8, SubjectPublicKeyInfo or EncryptedPrivateKeyInfo structure",
		keytool.ErrInvalidKey)
}

// GetKeyFromPem dispatches on the PEM label. EC PRIVATE KEY blocks go
// through the SEC1 converter first.
func (p *AsymmetricKeyProvider) GetKeyFromPem(text string) (*keytool.AsymmetricKey, error) {
	block, err := pkcs8.FromPem(text)
	if err != nil {
		return nil, err
	}
	if block.Label == pkcs8.LabelEcPrivateKey {
		key, err := sec1.FromPemBlock(block)
		if err != nil {
			return nil, err
		}
		return p.GetPrivateKey(key.Content)
	}
	return p.GetKey(block.Der, block.Type)
}

// GetPublicKeyFromPrivate recomputes the public key of a decrypted private
// key.
func (p *AsymmetricKeyProvider) GetPublicKeyFromPrivate(private *keytool.AsymmetricKey) (*keytool.AsymmetricKey, error) {
	if private == nil {
		return nil, fmt.Errorf("%w: key cannot be nil", keytool.ErrInvalidArgument)
	}
	if private.IsEncrypted() {
		return nil, fmt.Errorf("%w: decrypt the key before deriving its public key", keytool.ErrInvalidArgument)
	}
	provider, err := p.Provider(private.Cipher)
	if err != nil {
		return nil, err
	}
	return provider.DerivePublicKey(private)
}

func (p *AsymmetricKeyProvider) VerifyKeyPair(pair *keytool.KeyPair) bool {
	if pair == nil || pair.Private == nil || pair.Public == nil {
		return false
	}
	if pair.Private.Cipher != pair.Public.Cipher {
		return false
	}
	provider, err := p.Provider(pair.Private.Cipher)
	if err != nil {
		return false
	}
	return provider.VerifyKeyPair(pair)
}
