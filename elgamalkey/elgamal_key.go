package elgamalkey

import (
	"crypto/dsa"
	"crypto/rand"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/ProtonMail/go-crypto/openpgp/elgamal"
	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/dsakey"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/oid"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
	"github.com/overnest/strongsalt-keytool-go/utils"
)

// ElGamalParameter ::= SEQUENCE { p INTEGER, g INTEGER }
type groupParams struct {
	P, G *big.Int
}

type Provider struct {
	log *zap.Logger
}

func New() *Provider {
	return &Provider{log: logger.Named("elgamal")}
}

func (p *Provider) Cipher() *keytool.CipherType {
	return keytool.Cipher_ElGamal
}

// CreateKeyPair works in a prime order subgroup of Z*p drawn with the DSA
// parameter generator, so X is uniform in [1, q-1].
func (p *Provider) CreateKeyPair(params KeyPairParams) (*keytool.KeyPair, error) {
	if params.Curve != "" {
		return nil, fmt.Errorf("%w: ElGamal key must be defined by key size", keytool.ErrInvalidArgument)
	}
	sizes, err := dsakey.ParameterSizes(params.KeySize)
	if err != nil {
		return nil, err
	}
	group := &dsa.PrivateKey{}
	if err = dsa.GenerateParameters(&group.Parameters, rand.Reader, sizes); err != nil {
		return nil, err
	}
	if err = dsa.GenerateKey(group, rand.Reader); err != nil {
		return nil, err
	}
	priv := &elgamal.PrivateKey{
		PublicKey: elgamal.PublicKey{G: group.G, P: group.P, Y: group.Y},
		X:         group.X,
	}
	p.log.Debug("generated key pair", zap.Int("key_size", params.KeySize))
	return FromElGamalKey(priv)
}

func FromElGamalKey(priv *elgamal.PrivateKey) (*keytool.KeyPair, error) {
	privDer, err := MarshalPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pubDer, err := MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	size := priv.P.BitLen()
	private, err := keytool.NewKey(keytool.Cipher_ElGamal, keytool.KeyTypePrivate, privDer, size)
	if err != nil {
		return nil, err
	}
	public, err := keytool.NewKey(keytool.Cipher_ElGamal, keytool.KeyTypePublic, pubDer, size)
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
				return nil, fmt.Errorf("%w: expected ElGamal private key, got public key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewKey(keytool.Cipher_ElGamal, keytool.KeyTypePrivate, content, priv.P.BitLen())
	case keytool.KeyTypePublic:
		pub, err := ParsePublicKey(content)
		if err != nil {
			if _, privErr := ParsePrivateKey(content); privErr == nil {
				return nil, fmt.Errorf("%w: expected ElGamal public key, got private key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewKey(keytool.Cipher_ElGamal, keytool.KeyTypePublic, content, pub.P.BitLen())
	}
	return nil, fmt.Errorf("%w: cannot read %v key as ElGamal", keytool.ErrKeyTypeMismatch, keyType)
}

func (p *Provider) DerivePublicKey(private *keytool.AsymmetricKey) (*keytool.AsymmetricKey, error) {
	if private == nil || private.Cipher != keytool.Cipher_ElGamal || !private.IsPrivateKey() {
		return nil, fmt.Errorf("%w: public key can only be derived from an ElGamal private key", keytool.ErrKeyTypeMismatch)
	}
	priv, err := ParsePrivateKey(private.Content)
	if err != nil {
		return nil, err
	}
	pair, err := FromElGamalKey(priv)
	if err != nil {
		return nil, err
	}
	return pair.Public, nil
}

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

// Verify checks that both keys share P and G and that Y = G^X mod P.
func Verify(priv *elgamal.PrivateKey, pub *elgamal.PublicKey) bool {
	if utils.IsZero(priv.G) || utils.IsZero(priv.P) || priv.X == nil || priv.X.Sign() <= 0 || pub.Y == nil {
		return false
	}
	if !utils.EqualInts(priv.P, pub.P) || !utils.EqualInts(priv.G, pub.G) {
		return false
	}
	y := new(big.Int).Exp(priv.G, priv.X, priv.P)
	return y != nil && y.Mod(y, priv.P).Cmp(pub.Y) == 0
}

// Encrypt and Decrypt run the ProtonMail ElGamal scheme (PKCS#1 v1.5
// padding) on keys held in the toolkit's model.
func Encrypt(key *keytool.AsymmetricKey, msg []byte) (c1, c2 *big.Int, err error) {
	if key == nil || key.Cipher != keytool.Cipher_ElGamal || key.Type != keytool.KeyTypePublic {
		return nil, nil, fmt.Errorf("%w: ElGamal public key required", keytool.ErrInvalidArgument)
	}
	pub, err := ParsePublicKey(key.Content)
	if err != nil {
		return nil, nil, err
	}
	return elgamal.Encrypt(rand.Reader, pub, msg)
}

func Decrypt(key *keytool.AsymmetricKey, c1, c2 *big.Int) ([]byte, error) {
	if key == nil || key.Cipher != keytool.Cipher_ElGamal || !key.IsPrivateKey() {
		return nil, fmt.Errorf("%w: ElGamal private key required", keytool.ErrInvalidArgument)
	}
	priv, err := ParsePrivateKey(key.Content)
	if err != nil {
		return nil, err
	}
	return elgamal.Decrypt(priv, c1, c2)
}

/*
** ENCODING
 */

func algorithm(p, g *big.Int) (pkix.AlgorithmIdentifier, error) {
	return pkcs8.AlgorithmWithParams(oid.ElGamal, groupParams{p, g})
}

func MarshalPrivateKey(priv *elgamal.PrivateKey) ([]byte, error) {
	alg, err := algorithm(priv.P, priv.G)
	if err != nil {
		return nil, err
	}
	x, err := pkcs8.MarshalInteger(priv.X)
	if err != nil {
		return nil, err
	}
	return pkcs8.MarshalPrivateKeyInfo(alg, x)
}

func MarshalPublicKey(pub *elgamal.PublicKey) ([]byte, error) {
	alg, err := algorithm(pub.P, pub.G)
	if err != nil {
		return nil, err
	}
	y, err := pkcs8.MarshalInteger(pub.Y)
	if err != nil {
		return nil, err
	}
	return pkcs8.MarshalSubjectPublicKeyInfo(alg, y)
}

func parseParams(raw asn1.RawValue) (*big.Int, *big.Int, error) {
	params := groupParams{}
	rest, err := asn1.Unmarshal(raw.FullBytes, &params)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ElGamal parameters: %v", keytool.ErrInvalidKey, err)
	}
	if len(rest) > 0 || params.P == nil || params.G == nil || params.P.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: malformed ElGamal parameters", keytool.ErrInvalidKey)
	}
	return params.P, params.G, nil
}

// ParsePrivateKey reads a PKCS#8 ElGamal key and recomputes Y from X.
func ParsePrivateKey(der []byte) (*elgamal.PrivateKey, error) {
	info, err := pkcs8.ParsePrivateKeyInfo(der)
	if err != nil {
		return nil, err
	}
	if !info.Algorithm.Algorithm.Equal(oid.ElGamal) {
		return nil, fmt.Errorf("%w: not an ElGamal private key", keytool.ErrInvalidKey)
	}
	p, g, err := parseParams(info.Algorithm.Parameters)
	if err != nil {
		return nil, err
	}
	x, err := pkcs8.ParseInteger(info.PrivateKey)
	if err != nil {
		return nil, err
	}
	if x.Sign() <= 0 || x.Cmp(p) >= 0 {
		return nil, fmt.Errorf("%w: ElGamal private value out of range", keytool.ErrInvalidKey)
	}
	return &elgamal.PrivateKey{
		PublicKey: elgamal.PublicKey{G: g, P: p, Y: new(big.Int).Exp(g, x, p)},
		X:         x,
	}, nil
}

func ParsePublicKey(der []byte) (*elgamal.PublicKey, error) {
	info, err := pkcs8.ParseSubjectPublicKeyInfo(der)
	if err != nil {
		return nil, err
	}
	if !info.Algorithm.Algorithm.Equal(oid.ElGamal) {
		return nil, fmt.Errorf("%w: not an ElGamal public key", keytool.ErrInvalidKey)
	}
	p, g, err := parseParams(info.Algorithm.Parameters)
	if err != nil {
		return nil, err
	}
	y, err := pkcs8.ParseInteger(info.PublicKey.RightAlign())
	if err != nil {
		return nil, err
	}
	return &elgamal.PublicKey{G: g, P: p, Y: y}, nil
}
