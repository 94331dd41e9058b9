package dsakey

import (
	"crypto/dsa"
	"crypto/rand"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/oid"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
	"github.com/overnest/strongsalt-keytool-go/utils"
)

var parameterSizes = map[int]dsa.ParameterSizes{
	1024: dsa.L1024N160,
	2048: dsa.L2048N256,
	3072: dsa.L3072N256,
}

// ParameterSizes maps a modulus length to its FIPS 186-3 (L, N) pair. It is
// shared with the ElGamal provider, which draws its groups the same way.
func ParameterSizes(keySize int) (dsa.ParameterSizes, error) {
	sizes, ok := parameterSizes[keySize]
	if !ok {
		return 0, fmt.Errorf("%w: key size must be 1024, 2048 or 3072 bits, got %d",
			keytool.ErrInvalidArgument, keySize)
	}
	return sizes, nil
}

// Dss-Parms
type dssParams struct {
	P, Q, G *big.Int
}

type Provider struct {
	log *zap.Logger
}

func New() *Provider {
	return &Provider{log: logger.Named("dsa")}
}

func (p *Provider) Cipher() *keytool.CipherType {
	return keytool.Cipher_DSA
}

func (p *Provider) CreateKeyPair(params KeyPairParams) (*keytool.KeyPair, error) {
	if params.Curve != "" {
		return nil, fmt.Errorf("%w: DSA key must be defined by key size", keytool.ErrInvalidArgument)
	}
	sizes, err := ParameterSizes(params.KeySize)
	if err != nil {
		return nil, err
	}
	priv := &dsa.PrivateKey{}
	if err = dsa.GenerateParameters(&priv.Parameters, rand.Reader, sizes); err != nil {
		return nil, err
	}
	if err = dsa.GenerateKey(priv, rand.Reader); err != nil {
		return nil, err
	}
	p.log.Debug("generated key pair", zap.Int("key_size", params.KeySize))
	return FromDsaKey(priv)
}

func FromDsaKey(priv *dsa.PrivateKey) (*keytool.KeyPair, error) {
	privDer, err := MarshalPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pubDer, err := MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	size := priv.P.BitLen()
	private, err := keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePrivate, privDer, size)
	if err != nil {
		return nil, err
	}
	public, err := keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePublic, pubDer, size)
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
				return nil, fmt.Errorf("%w: expected DSA private key, got public key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePrivate, content, priv.P.BitLen())
	case keytool.KeyTypePublic:
		pub, err := ParsePublicKey(content)
		if err != nil {
			if _, privErr := ParsePrivateKey(content); privErr == nil {
				return nil, fmt.Errorf("%w: expected DSA public key, got private key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePublic, content, pub.P.BitLen())
	}
	return nil, fmt.Errorf("%w: cannot read %v key as DSA", keytool.ErrKeyTypeMismatch, keyType)
}

func (p *Provider) DerivePublicKey(private *keytool.AsymmetricKey) (*keytool.AsymmetricKey, error) {
	if private == nil || private.Cipher != keytool.Cipher_DSA || !private.IsPrivateKey() {
		return nil, fmt.Errorf("%w: public key can only be derived from a DSA private key", keytool.ErrKeyTypeMismatch)
	}
	priv, err := ParsePrivateKey(private.Content)
	if err != nil {
		return nil, err
	}
	pair, err := FromDsaKey(priv)
	if err != nil {
		return nil, err
	}
	return pair.Public, nil
}

// VerifyKeyPair checks that both keys use the same domain parameters and
// that Y = G^X mod P.
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
	return Verify(priv, pub)
}

func Verify(priv *dsa.PrivateKey, pub *dsa.PublicKey) bool {
	if priv.X == nil || priv.X.Sign() <= 0 || utils.IsZero(pub.Y) || utils.IsZero(pub.P) {
		return false
	}
	if !utils.EqualInts(priv.P, pub.P) || !utils.EqualInts(priv.Q, pub.Q) || !utils.EqualInts(priv.G, pub.G) {
		return false
	}
	y := new(big.Int).Exp(priv.G, priv.X, priv.P)
	return y != nil && y.Cmp(pub.Y) == 0
}

/*
** ENCODING
 */

func algorithm(params dsa.Parameters) (pkix.AlgorithmIdentifier, error) {
	return pkcs8.AlgorithmWithParams(oid.Dsa, dssParams{params.P, params.Q, params.G})
}

func MarshalPrivateKey(priv *dsa.PrivateKey) ([]byte, error) {
	alg, err := algorithm(priv.Parameters)
	if err != nil {
		return nil, err
	}
	x, err := pkcs8.MarshalInteger(priv.X)
	if err != nil {
		return nil, err
	}
	return pkcs8.MarshalPrivateKeyInfo(alg, x)
}

func MarshalPublicKey(pub *dsa.PublicKey) ([]byte, error) {
	alg, err := algorithm(pub.Parameters)
	if err != nil {
		return nil, err
	}
	y, err := pkcs8.MarshalInteger(pub.Y)
	if err != nil {
		return nil, err
	}
	return pkcs8.MarshalSubjectPublicKeyInfo(alg, y)
}

func parseParams(raw asn1.RawValue) (dsa.Parameters, error) {
	params := dssParams{}
	rest, err := asn1.Unmarshal(raw.FullBytes, &params)
	if err != nil {
		return dsa.Parameters{}, fmt.Errorf("%w: DSA parameters: %v", keytool.ErrInvalidKey, err)
	}
	if len(rest) > 0 || params.P == nil || params.Q == nil || params.G == nil ||
		params.P.Sign() <= 0 || params.Q.Sign() <= 0 || params.G.Sign() <= 0 {
		return dsa.Parameters{}, fmt.Errorf("%w: malformed DSA parameters", keytool.ErrInvalidKey)
	}
	return dsa.Parameters{P: params.P, Q: params.Q, G: params.G}, nil
}

// ParsePrivateKey reads a PKCS#8 DSA key. Y is recomputed from X since the
// structure does not carry it.
func ParsePrivateKey(der []byte) (*dsa.PrivateKey, error) {
	info, err := pkcs8.ParsePrivateKeyInfo(der)
	if err != nil {
		return nil, err
	}
	if !info.Algorithm.Algorithm.Equal(oid.Dsa) {
		return nil, fmt.Errorf("%w: not a DSA private key", keytool.ErrInvalidKey)
	}
	params, err := parseParams(info.Algorithm.Parameters)
	if err != nil {
		return nil, err
	}
	x, err := pkcs8.ParseInteger(info.PrivateKey)
	if err != nil {
		return nil, err
	}
	if x.Sign() <= 0 || x.Cmp(params.Q) >= 0 {
		return nil, fmt.Errorf("%w: DSA private value out of range", keytool.ErrInvalidKey)
	}
	priv := &dsa.PrivateKey{X: x}
	priv.Parameters = params
	priv.Y = new(big.Int).Exp(params.G, x, params.P)
	return priv, nil
}

func ParsePublicKey(der []byte) (*dsa.PublicKey, error) {
	info, err := pkcs8.ParseSubjectPublicKeyInfo(der)
	if err != nil {
		return nil, err
	}
	if !info.Algorithm.Algorithm.Equal(oid.Dsa) {
		return nil, fmt.Errorf("%w: not a DSA public key", keytool.ErrInvalidKey)
	}
	params, err := parseParams(info.Algorithm.Parameters)
	if err != nil {
		return nil, err
	}
	y, err := pkcs8.ParseInteger(info.PublicKey.RightAlign())
	if err != nil {
		return nil, err
	}
	return &dsa.PublicKey{Parameters: params, Y: y}, nil
}
