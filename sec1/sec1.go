// Package sec1 converts EC private keys between PKCS#8 and the SEC1
// ECPrivateKey structure.
package sec1

import (
	"encoding/asn1"
	"fmt"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/curves"
	"github.com/overnest/strongsalt-keytool-go/eckey"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
)

const ecPrivKeyVersion = 1

var (
	errFormat    = fmt.Errorf("%w: EC key format not supported.", keytool.ErrUnsupportedFormat)
	errEncrypted = fmt.Errorf("%w: Encrypted SEC1 EC key format is not supported.", keytool.ErrUnsupportedFormat)
)

// written form: version, D, [0] curve
type ecPrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"explicit,tag:0"`
}

// read form also accepts the optional [1] public key other tools emit
type ecPrivateKeyIn struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

// FromPkcs8 re-emits a PKCS#8 EC private key as SEC1 DER. D is always
// padded to the curve's byte size.
func FromPkcs8(key *keytool.AsymmetricKey) ([]byte, error) {
	if key == nil {
		return nil, errFormat
	}
	if key.IsEncrypted() {
		return nil, errEncrypted
	}
	if key.Cipher != keytool.Cipher_EC || !key.IsPrivateKey() {
		return nil, errFormat
	}
	priv, err := eckey.ParsePrivateKey(key.Content)
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(ecPrivateKey{
		Version:       ecPrivKeyVersion,
		PrivateKey:    priv.D,
		NamedCurveOID: priv.Curve.OID,
	})
}

// ToPkcs8 reads SEC1 DER and returns the PKCS#8 EC private key.
func ToPkcs8(der []byte) (*keytool.AsymmetricKey, error) {
	in := ecPrivateKeyIn{}
	rest, err := asn1.Unmarshal(der, &in)
	if err != nil || len(rest) > 0 || in.Version != ecPrivKeyVersion || len(in.NamedCurveOID) == 0 {
		return nil, errFormat
	}
	curve, ok := curves.ByOID(in.NamedCurveOID)
	if !ok {
		return nil, fmt.Errorf("%w: %v", keytool.ErrUnsupportedCurve, in.NamedCurveOID)
	}

	d := in.PrivateKey
	size := curve.ByteSize()
	switch {
	case curve.IsCurve25519():
		// little-endian, so it cannot be re-padded
		if len(d) != size {
			return nil, fmt.Errorf("%w: curve25519 private key must be %d bytes", keytool.ErrInvalidKey, size)
		}
	case len(d) > size:
		return nil, fmt.Errorf("%w: private key too long for %v", keytool.ErrInvalidKey, curve.Name)
	case len(d) < size:
		padded := make([]byte, size)
		copy(padded[size-len(d):], d)
		d = padded
	}

	content, err := eckey.MarshalPrivateKey(curve, d)
	if err != nil {
		return nil, err
	}
	return keytool.NewEcKey(keytool.KeyTypePrivate, content, curve.FieldSize, curve.Name)
}

func ToPem(key *keytool.AsymmetricKey) (string, error) {
	der, err := FromPkcs8(key)
	if err != nil {
		return "", err
	}
	return pkcs8.EncodePem(pkcs8.LabelEcPrivateKey, der), nil
}

// FromPem reads an EC PRIVATE KEY block. Legacy Proc-Type/DEK-Info
// encryption is rejected.
func FromPem(text string) (*keytool.AsymmetricKey, error) {
	block, err := pkcs8.FromPem(text)
	if err != nil {
		return nil, err
	}
	return FromPemBlock(block)
}

func FromPemBlock(block *pkcs8.PemBlock) (*keytool.AsymmetricKey, error) {
	if block.Label != pkcs8.LabelEcPrivateKey {
		return nil, errFormat
	}
	if IsEncrypted(block) {
		return nil, errEncrypted
	}
	return ToPkcs8(block.Der)
}

func IsEncrypted(block *pkcs8.PemBlock) bool {
	_, procType := block.Headers["Proc-Type"]
	_, dekInfo := block.Headers["DEK-Info"]
	return procType || dekInfo
}
