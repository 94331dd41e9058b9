// Package oid holds the object identifiers the toolkit reads and writes and
// classifies algorithm identifiers into cipher types.
package oid

import (
	"crypto/x509/pkix"
	"encoding/asn1"

	keytool "github.com/overnest/strongsalt-keytool-go"
)

// Key algorithms
var (
	RsaEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	Dsa           = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	EcPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	X25519        = asn1.ObjectIdentifier{1, 3, 101, 110}
	ElGamal       = asn1.ObjectIdentifier{1, 3, 14, 7, 2, 1, 1}
)

// Named curves
var (
	Secp224r1 = asn1.ObjectIdentifier{1, 3, 132, 0, 33}
	Secp256r1 = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	Secp384r1 = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	Secp521r1 = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
)

// Password based encryption
var (
	PbeWithShaAnd3KeyTripleDesCbc = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 12, 1, 3}
	BcPbeSha256Pkcs12Aes256Cbc    = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 22554, 1, 2, 1, 2, 1, 42}
	Pbes2                         = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	Pbkdf2                        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	HmacWithSha1                  = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	HmacWithSha256                = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	HmacWithSha512                = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}
	DesEde3Cbc                    = asn1.ObjectIdentifier{1, 2, 840, 113549, 3, 7}
	Aes256Cbc                     = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
)

var cipherTypeMap map[string]*keytool.CipherType = make(map[string]*keytool.CipherType)

func register(id asn1.ObjectIdentifier, cipherType *keytool.CipherType) {
	cipherTypeMap[id.String()] = cipherType
}

func init() {
	register(RsaEncryption, keytool.Cipher_RSA)
	register(Dsa, keytool.Cipher_DSA)
	register(EcPublicKey, keytool.Cipher_EC)
	register(X25519, keytool.Cipher_EC)
	register(ElGamal, keytool.Cipher_ElGamal)
	register(PbeWithShaAnd3KeyTripleDesCbc, keytool.Cipher_Pkcs12Encrypted)
	register(BcPbeSha256Pkcs12Aes256Cbc, keytool.Cipher_AesEncrypted)

	// PBES2 is classified by its encryption scheme, see CipherTypeOf.
	register(DesEde3Cbc, keytool.Cipher_Pkcs5Encrypted)
	register(Aes256Cbc, keytool.Cipher_AesEncrypted)
}

// Lookup returns Cipher_Unknown for unregistered identifiers.
func Lookup(id asn1.ObjectIdentifier) *keytool.CipherType {
	cipherType, ok := cipherTypeMap[id.String()]
	if !ok {
		return keytool.Cipher_Unknown
	}
	return cipherType
}

// Pbes2Params is the PBES2-params structure of RFC 8018.
type Pbes2Params struct {
	KeyDerivationFunc pkix.AlgorithmIdentifier
	EncryptionScheme  pkix.AlgorithmIdentifier
}

// CipherTypeOf classifies an AlgorithmIdentifier taken from a public, private
// or encrypted key info structure. It never fails; unrecognized identifiers
// yield Cipher_Unknown and the caller decides what to reject.
func CipherTypeOf(alg pkix.AlgorithmIdentifier) *keytool.CipherType {
	if alg.Algorithm.Equal(Pbes2) {
		var params Pbes2Params
		if _, err := asn1.Unmarshal(alg.Parameters.FullBytes, &params); err != nil {
			return keytool.Cipher_Unknown
		}
		if !params.KeyDerivationFunc.Algorithm.Equal(Pbkdf2) {
			return keytool.Cipher_Unknown
		}
		scheme := params.EncryptionScheme.Algorithm
		if !scheme.Equal(DesEde3Cbc) && !scheme.Equal(Aes256Cbc) {
			return keytool.Cipher_Unknown
		}
		return Lookup(scheme)
	}
	if alg.Algorithm.Equal(DesEde3Cbc) || alg.Algorithm.Equal(Aes256Cbc) {
		// bare cipher identifiers are not key algorithms
		return keytool.Cipher_Unknown
	}
	return Lookup(alg.Algorithm)
}
