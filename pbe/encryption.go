// Package pbe encrypts and decrypts PKCS#8 private keys under a password.
package pbe

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/config"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/oid"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
	"github.com/overnest/strongsalt-keytool-go/utils"
)

/*
** ENCRYPTION TYPES
 */

var (
	EncryptionTypeNone      = newEncryptionType("NONE", nil)
	EncryptionTypePkcs      = newEncryptionType("PKCS", Pkcs12Generator)
	EncryptionTypeAes       = newEncryptionType("AES", Pkcs12AesGenerator)
	EncryptionTypePkcs5     = newEncryptionType("PKCS5", Pkcs5Generator)
	EncryptionTypeAesPbkdf2 = newEncryptionType("AES-PBKDF2", AesGenerator)
)

type EncryptionType struct {
	Name      string
	Generator EncryptionGenerator
}

var encryptionTypeMap map[string]*EncryptionType = make(map[string]*EncryptionType)

func newEncryptionType(name string, generator EncryptionGenerator) *EncryptionType {
	encryptionType := &EncryptionType{name, generator}
	encryptionTypeMap[name] = encryptionType
	return encryptionType
}

func (t *EncryptionType) String() string {
	return t.Name
}

// EncryptionTypeFromName is case-insensitive. The empty name is NONE.
func EncryptionTypeFromName(name string) (*EncryptionType, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return EncryptionTypeNone, nil
	}
	encryptionType, ok := encryptionTypeMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown encryption type %v", keytool.ErrInvalidArgument, name)
	}
	return encryptionType, nil
}

/*
** DECRYPTION
 */

// Decrypt recovers the PrivateKeyInfo inside an EncryptedPrivateKeyInfo.
// The scheme is taken from the encryption algorithm identifier. Every
// failure after the scheme is known, including a plaintext that is not a
// PrivateKeyInfo, is reported as ErrIncorrectPassword.
func Decrypt(password string, encrypted []byte) ([]byte, error) {
	info, err := pkcs8.ParseEncryptedPrivateKeyInfo(encrypted)
	if err != nil {
		return nil, err
	}
	alg := info.EncryptionAlgorithm

	var plaintext []byte
	switch {
	case alg.Algorithm.Equal(oid.PbeWithShaAnd3KeyTripleDesCbc):
		plaintext, err = pkcs12TripleDes.decrypt(password, alg, info.EncryptedData)
	case alg.Algorithm.Equal(oid.BcPbeSha256Pkcs12Aes256Cbc):
		plaintext, err = pkcs12Aes256.decrypt(password, alg, info.EncryptedData)
	case alg.Algorithm.Equal(oid.Pbes2):
		plaintext, err = decryptPbes2(password, alg, info.EncryptedData)
	default:
		return nil, fmt.Errorf("%w: encryption algorithm %v", keytool.ErrUnsupportedKeyType, alg.Algorithm)
	}
	if err != nil {
		if errors.Is(err, keytool.ErrInvalidKey) || errors.Is(err, keytool.ErrUnsupportedKeyType) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", keytool.ErrIncorrectPassword, err)
	}
	if _, err = pkcs8.ParsePrivateKeyInfo(plaintext); err != nil {
		return nil, fmt.Errorf("%w: decrypted data is not a private key", keytool.ErrIncorrectPassword)
	}
	return plaintext, nil
}

/*
** PROVIDER
 */

// EncryptionProvider applies the configured salt length and iteration count
// to whichever generator an EncryptionType selects.
type EncryptionProvider struct {
	cfg  config.EncryptionConfig
	keys PrivateKeyParser
	log  *zap.Logger
}

func NewEncryptionProvider(cfg config.EncryptionConfig, keys PrivateKeyParser) *EncryptionProvider {
	return &EncryptionProvider{
		cfg:  cfg,
		keys: keys,
		log:  logger.Named("pbe"),
	}
}

func (p *EncryptionProvider) EncryptPrivateKey(key *keytool.AsymmetricKey, password string,
	encryptionType *EncryptionType) (*keytool.AsymmetricKey, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key cannot be nil", keytool.ErrInvalidArgument)
	}
	if key.IsEncrypted() {
		return nil, keytool.ErrAlreadyEncrypted
	}
	if encryptionType == nil || encryptionType.Generator == nil {
		return nil, keytool.ErrEncryptionTypeRequired
	}
	if !key.IsPrivateKey() {
		return nil, fmt.Errorf("%w: only private keys can be encrypted", keytool.ErrInvalidKey)
	}

	salt, err := utils.RandomBytes(p.cfg.SaltLengthBytes)
	if err != nil {
		return nil, err
	}
	content, err := encryptionType.Generator.Encrypt(password, salt, p.cfg.KeyDerivationIterations, key.Content)
	if err != nil {
		return nil, err
	}
	info, err := pkcs8.ParseEncryptedPrivateKeyInfo(content)
	if err != nil {
		return nil, err
	}
	p.log.Debug("encrypted private key",
		zap.Stringer("cipher", key.Cipher),
		zap.Stringer("encryption", encryptionType),
		zap.Int("iterations", p.cfg.KeyDerivationIterations))
	return keytool.NewEncryptedKey(oid.CipherTypeOf(info.EncryptionAlgorithm), content, "")
}

// DecryptPrivateKey falls back to the key's advisory password when password
// is empty.
func (p *EncryptionProvider) DecryptPrivateKey(key *keytool.AsymmetricKey, password string) (*keytool.AsymmetricKey, error) {
	if key == nil || !key.IsEncrypted() {
		return nil, fmt.Errorf("%w: key is not encrypted", keytool.ErrInvalidArgument)
	}
	if password == "" {
		password = key.Password
	}
	plaintext, err := Decrypt(password, key.Content)
	if err != nil {
		return nil, err
	}
	p.log.Debug("decrypted private key", zap.Stringer("encryption", key.Cipher))
	return p.keys.GetPrivateKey(plaintext)
}
