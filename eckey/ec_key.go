package eckey

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/curves"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/utils"
	"github.com/overnest/strongsalt-keytool-go/x25519"
)

// PrivateKey is a parsed EC private key. D is the scalar zero-padded to the
// curve's byte size. Exactly one of Ecdsa and X25519 is set.
type PrivateKey struct {
	Curve  *curves.Curve
	D      []byte
	Ecdsa  *ecdsa.PrivateKey
	X25519 *ecdh.PrivateKey
}

// PublicKey is a parsed EC public key. Point is the uncompressed SEC1 point
// for NIST curves and the Montgomery u-coordinate for curve25519.
type PublicKey struct {
	Curve  *curves.Curve
	Point  []byte
	Ecdsa  *ecdsa.PublicKey
	X25519 *ecdh.PublicKey
}

type Provider struct {
	log *zap.Logger
}

func New() *Provider {
	return &Provider{log: logger.Named("ec")}
}

func (p *Provider) Cipher() *keytool.CipherType {
	return keytool.Cipher_EC
}

func (p *Provider) CreateKeyPair(params KeyPairParams) (*keytool.KeyPair, error) {
	if params.Curve == "" {
		return nil, fmt.Errorf("%w: EC key must be defined by curve", keytool.ErrInvalidArgument)
	}
	curve, ok := curves.ByName(params.Curve)
	if !ok {
		return nil, fmt.Errorf("%w: %v", keytool.ErrUnsupportedCurve, params.Curve)
	}
	if params.KeySize != 0 && params.KeySize != curve.FieldSize {
		return nil, fmt.Errorf("%w: curve %v has a fixed size of %d bits",
			keytool.ErrInvalidArgument, curve.Name, curve.FieldSize)
	}

	var d []byte
	if curve.IsCurve25519() {
		priv, err := ecdh.X25519().GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		d = x25519.Clamp(priv.Bytes())
	} else {
		priv, err := ecdsa.GenerateKey(curve.Elliptic, rand.Reader)
		if err != nil {
			return nil, err
		}
		d = utils.PaddedBytes(priv.D, curve.ByteSize())
	}
	p.log.Debug("generated key pair", zap.String("curve", curve.Name))
	return PairFromScalar(curve, d)
}

// PairFromScalar builds both halves of a key pair from a private scalar.
func PairFromScalar(curve *curves.Curve, d []byte) (*keytool.KeyPair, error) {
	privDer, err := MarshalPrivateKey(curve, d)
	if err != nil {
		return nil, err
	}
	priv, err := ParsePrivateKey(privDer)
	if err != nil {
		return nil, err
	}
	pubDer, err := MarshalPublicKey(curve, priv.PublicPoint())
	if err != nil {
		return nil, err
	}
	private, err := keytool.NewEcKey(keytool.KeyTypePrivate, privDer, curve.FieldSize, curve.Name)
	if err != nil {
		return nil, err
	}
	public, err := keytool.NewEcKey(keytool.KeyTypePublic, pubDer, curve.FieldSize, curve.Name)
	if err != nil {
		return nil, err
	}
	return keytool.NewKeyPair(private, public)
}

// GetKey parses content and names the curve from its field parameters.
func (p *Provider) GetKey(content []byte, keyType keytool.KeyType) (*keytool.AsymmetricKey, error) {
	switch keyType {
	case keytool.KeyTypePrivate:
		priv, err := ParsePrivateKey(content)
		if err != nil {
			if _, pubErr := ParsePublicKey(content); pubErr == nil {
				return nil, fmt.Errorf("%w: expected EC private key, got public key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewEcKey(keytool.KeyTypePrivate, content, priv.Curve.FieldSize, priv.Curve.Name)
	case keytool.KeyTypePublic:
		pub, err := ParsePublicKey(content)
		if err != nil {
			if _, privErr := ParsePrivateKey(content); privErr == nil {
				return nil, fmt.Errorf("%w: expected EC public key, got private key", keytool.ErrKeyTypeMismatch)
			}
			return nil, err
		}
		return keytool.NewEcKey(keytool.KeyTypePublic, content, pub.Curve.FieldSize, pub.Curve.Name)
	}
	return nil, fmt.Errorf("%w: cannot read %v key as EC", keytool.ErrKeyTypeMismatch, keyType)
}

func (p *Provider) DerivePublicKey(private *keytool.AsymmetricKey) (*keytool.AsymmetricKey, error) {
	if private == nil || private.Cipher != keytool.Cipher_EC || !private.IsPrivateKey() {
		return nil, fmt.Errorf("%w: public key can only be derived from an EC private key", keytool.ErrKeyTypeMismatch)
	}
	priv, err := ParsePrivateKey(private.Content)
	if err != nil {
		return nil, err
	}
	der, err := MarshalPublicKey(priv.Curve, priv.PublicPoint())
	if err != nil {
		return nil, err
	}
	return keytool.NewEcKey(keytool.KeyTypePublic, der, priv.Curve.FieldSize, priv.Curve.Name)
}

// VerifyKeyPair checks that both keys are on the same curve and that the
// public point is D·G.
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

func Verify(priv *PrivateKey, pub *PublicKey) bool {
	if priv.Curve == nil || priv.Curve != pub.Curve {
		return false
	}
	if priv.Curve.IsCurve25519() {
		// X25519 ignores the clamped bits, so only the clamped form is accepted
		if !x25519.IsClamped(priv.D) {
			return false
		}
		u, err := x25519.PublicFromPrivate(priv.D)
		if err != nil {
			return false
		}
		return string(u) == string(pub.Point)
	}
	if pub.Ecdsa == nil || utils.IsZero(pub.Ecdsa.X) {
		return false
	}
	x, y := priv.Curve.Elliptic.ScalarBaseMult(priv.D)
	return x.Cmp(pub.Ecdsa.X) == 0 && y.Cmp(pub.Ecdsa.Y) == 0
}

// GetEd25519PublicKeyFromCurve25519 derives the Ed25519 public key whose
// seed is the curve25519 private scalar.
func GetEd25519PublicKeyFromCurve25519(key *keytool.AsymmetricKey) (ed25519.PublicKey, error) {
	signer, err := GetEd25519PrivateKeyFromCurve25519(key)
	if err != nil {
		return nil, err
	}
	return signer.Public().(ed25519.PublicKey), nil
}

func GetEd25519PrivateKeyFromCurve25519(key *keytool.AsymmetricKey) (ed25519.PrivateKey, error) {
	if key == nil || !key.IsPrivateKey() {
		return nil, fmt.Errorf("%w: Ed25519 key can only be derived from a private key", keytool.ErrInvalidArgument)
	}
	if !key.IsCurve25519() {
		return nil, fmt.Errorf("%w: Ed25519 key can only be derived from a curve25519 key", keytool.ErrUnsupportedCurve)
	}
	priv, err := ParsePrivateKey(key.Content)
	if err != nil {
		return nil, err
	}
	if !priv.Curve.IsCurve25519() {
		return nil, fmt.Errorf("%w: key content is not curve25519", keytool.ErrInvalidKey)
	}
	return x25519.Ed25519FromPrivate(priv.D)
}

/*
** ENCODING
 */

// PublicPoint returns the public point in the form PublicKey.Point uses.
func (k *PrivateKey) PublicPoint() []byte {
	if k.X25519 != nil {
		return k.X25519.PublicKey().Bytes()
	}
	return encodePoint(k.Curve, k.Ecdsa.X, k.Ecdsa.Y)
}

// uncompressed SEC1 point
func encodePoint(curve *curves.Curve, x, y *big.Int) []byte {
	byteLen := curve.ByteSize()
	point := make([]byte, 1+2*byteLen)
	point[0] = 4
	copy(point[1:1+byteLen], utils.PaddedBytes(x, byteLen))
	copy(point[1+byteLen:], utils.PaddedBytes(y, byteLen))
	return point
}

// MarshalPrivateKey encodes a PKCS#8 key from the curve and private scalar.
func MarshalPrivateKey(curve *curves.Curve, d []byte) ([]byte, error) {
	if curve.IsCurve25519() {
		priv, err := ecdh.X25519().NewPrivateKey(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
		}
		return x509.MarshalPKCS8PrivateKey(priv)
	}
	k := new(big.Int).SetBytes(d)
	if k.Sign() == 0 || k.Cmp(curve.Elliptic.Params().N) >= 0 {
		return nil, fmt.Errorf("%w: private scalar out of range for %v", keytool.ErrInvalidKey, curve.Name)
	}
	priv := &ecdsa.PrivateKey{D: k}
	priv.Curve = curve.Elliptic
	priv.X, priv.Y = curve.Elliptic.ScalarBaseMult(utils.PaddedBytes(k, curve.ByteSize()))
	return x509.MarshalPKCS8PrivateKey(priv)
}

// MarshalPublicKey encodes a SubjectPublicKeyInfo from the curve and point.
func MarshalPublicKey(curve *curves.Curve, point []byte) ([]byte, error) {
	if curve.IsCurve25519() {
		pub, err := ecdh.X25519().NewPublicKey(point)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
		}
		return x509.MarshalPKIXPublicKey(pub)
	}
	x, y := unmarshalPoint(curve, point)
	if x == nil {
		return nil, fmt.Errorf("%w: point is not on %v", keytool.ErrInvalidKey, curve.Name)
	}
	return x509.MarshalPKIXPublicKey(&ecdsa.PublicKey{Curve: curve.Elliptic, X: x, Y: y})
}

func unmarshalPoint(curve *curves.Curve, point []byte) (*big.Int, *big.Int) {
	byteLen := curve.ByteSize()
	if len(point) != 1+2*byteLen || point[0] != 4 {
		return nil, nil
	}
	x := new(big.Int).SetBytes(point[1 : 1+byteLen])
	y := new(big.Int).SetBytes(point[1+byteLen:])
	if !curve.Elliptic.IsOnCurve(x, y) {
		return nil, nil
	}
	return x, y
}

func ParsePrivateKey(der []byte) (*PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		curve, ok := curves.ByParams(k.Curve.Params())
		if !ok {
			return nil, fmt.Errorf("%w: %v", keytool.ErrUnsupportedCurve, k.Curve.Params().Name)
		}
		return &PrivateKey{Curve: curve, D: utils.PaddedBytes(k.D, curve.ByteSize()), Ecdsa: k}, nil
	case *ecdh.PrivateKey:
		if k.Curve() != ecdh.X25519() {
			return nil, fmt.Errorf("%w: unexpected ECDH curve", keytool.ErrInvalidKey)
		}
		return &PrivateKey{Curve: curves.Curve25519, D: k.Bytes(), X25519: k}, nil
	}
	return nil, fmt.Errorf("%w: not an EC private key", keytool.ErrInvalidKey)
}

func ParsePublicKey(der []byte) (*PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		curve, ok := curves.ByParams(k.Curve.Params())
		if !ok {
			return nil, fmt.Errorf("%w: %v", keytool.ErrUnsupportedCurve, k.Curve.Params().Name)
		}
		return &PublicKey{Curve: curve, Point: encodePoint(curve, k.X, k.Y), Ecdsa: k}, nil
	case *ecdh.PublicKey:
		if k.Curve() != ecdh.X25519() {
			return nil, fmt.Errorf("%w: unexpected ECDH curve", keytool.ErrInvalidKey)
		}
		return &PublicKey{Curve: curves.Curve25519, Point: k.Bytes(), X25519: k}, nil
	}
	return nil, fmt.Errorf("%w: not an EC public key", keytool.ErrInvalidKey)
}
