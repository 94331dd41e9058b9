// Package pkcs8 holds the ASN.1 key containers shared by every key provider
// and converts them between DER and PEM.
package pkcs8

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	keytool "github.com/overnest/strongsalt-keytool-go"
)

// PrivateKeyInfo is RFC 5208's structure. Trailing attributes are ignored
// when parsing and never written.
type PrivateKeyInfo struct {
	Version    int
	Algorithm  pkix.AlgorithmIdentifier
	PrivateKey []byte
}

type SubjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

type EncryptedPrivateKeyInfo struct {
	EncryptionAlgorithm pkix.AlgorithmIdentifier
	EncryptedData       []byte
}

func ParsePrivateKeyInfo(der []byte) (*PrivateKeyInfo, error) {
	info := &PrivateKeyInfo{}
	rest, err := asn1.Unmarshal(der, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: trailing data after PrivateKeyInfo", keytool.ErrInvalidKey)
	}
	if info.Version != 0 && info.Version != 1 {
		return nil, fmt.Errorf("%w: unknown PrivateKeyInfo version %v", keytool.ErrInvalidKey, info.Version)
	}
	return info, nil
}

func ParseSubjectPublicKeyInfo(der []byte) (*SubjectPublicKeyInfo, error) {
	info := &SubjectPublicKeyInfo{}
	rest, err := asn1.Unmarshal(der, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: trailing data after SubjectPublicKeyInfo", keytool.ErrInvalidKey)
	}
	return info, nil
}

func ParseEncryptedPrivateKeyInfo(der []byte) (*EncryptedPrivateKeyInfo, error) {
	info := &EncryptedPrivateKeyInfo{}
	rest, err := asn1.Unmarshal(der, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: trailing data after EncryptedPrivateKeyInfo", keytool.ErrInvalidKey)
	}
	if len(info.EncryptedData) == 0 {
		return nil, fmt.Errorf("%w: empty encrypted data", keytool.ErrInvalidKey)
	}
	return info, nil
}

// MarshalPrivateKeyInfo wraps an already encoded private key.
func MarshalPrivateKeyInfo(algorithm pkix.AlgorithmIdentifier, privateKey []byte) ([]byte, error) {
	return asn1.Marshal(PrivateKeyInfo{
		Version:    0,
		Algorithm:  algorithm,
		PrivateKey: privateKey,
	})
}

func MarshalSubjectPublicKeyInfo(algorithm pkix.AlgorithmIdentifier, publicKey []byte) ([]byte, error) {
	return asn1.Marshal(SubjectPublicKeyInfo{
		Algorithm: algorithm,
		PublicKey: asn1.BitString{Bytes: publicKey, BitLength: 8 * len(publicKey)},
	})
}

func MarshalEncryptedPrivateKeyInfo(algorithm pkix.AlgorithmIdentifier, encrypted []byte) ([]byte, error) {
	return asn1.Marshal(EncryptedPrivateKeyInfo{
		EncryptionAlgorithm: algorithm,
		EncryptedData:       encrypted,
	})
}

// AlgorithmWithParams builds an AlgorithmIdentifier whose parameters are the
// DER encoding of params.
func AlgorithmWithParams(algorithm asn1.ObjectIdentifier, params interface{}) (pkix.AlgorithmIdentifier, error) {
	paramBytes, err := asn1.Marshal(params)
	if err != nil {
		return pkix.AlgorithmIdentifier{}, err
	}
	return pkix.AlgorithmIdentifier{
		Algorithm:  algorithm,
		Parameters: asn1.RawValue{FullBytes: paramBytes},
	}, nil
}

// MarshalInteger and ParseInteger handle the bare INTEGER payloads DSA and
// ElGamal keys carry inside their OCTET STRING / BIT STRING wrappers.
func MarshalInteger(n *big.Int) ([]byte, error) {
	return asn1.Marshal(n)
}

func ParseInteger(der []byte) (*big.Int, error) {
	n := new(big.Int)
	rest, err := asn1.Unmarshal(der, &n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: trailing data after INTEGER", keytool.ErrInvalidKey)
	}
	return n, nil
}
