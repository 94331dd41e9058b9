// Package signing signs data with toolkit private keys and checks the
// result against either half of the pair.
//
// RSA uses PKCS#1 v1.5 and DSA/ECDSA write ASN.1 {r, s}. All three hash with
// SHA-256. curve25519 keys sign with the Ed25519 key whose seed is the
// private scalar.
package signing

import (
	"crypto"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"math/big"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/dsakey"
	"github.com/overnest/strongsalt-keytool-go/eckey"
	"github.com/overnest/strongsalt-keytool-go/rsakey"
)

type dsaSignature struct {
	R, S *big.Int
}

func checkKey(key *keytool.AsymmetricKey) error {
	if key == nil {
		return fmt.Errorf("%w: key cannot be nil", keytool.ErrInvalidArgument)
	}
	if key.IsEncrypted() {
		return fmt.Errorf("%w: decrypt the key before signing", keytool.ErrInvalidArgument)
	}
	return nil
}

func Sign(key *keytool.AsymmetricKey, data []byte) (*keytool.Signature, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if !key.IsPrivateKey() {
		return nil, fmt.Errorf("%w: signing needs a private key", keytool.ErrKeyTypeMismatch)
	}

	var (
		sig []byte
		err error
	)
	switch key.Cipher {
	case keytool.Cipher_RSA:
		sig, err = signRsa(key, data)
	case keytool.Cipher_DSA:
		sig, err = signDsa(key, data)
	case keytool.Cipher_EC:
		sig, err = signEc(key, data)
	default:
		return nil, fmt.Errorf("%w: %v keys cannot sign", keytool.ErrUnsupportedKeyType, key.Cipher)
	}
	if err != nil {
		return nil, err
	}
	return &keytool.Signature{Content: sig, SignedData: append([]byte(nil), data...)}, nil
}

func signRsa(key *keytool.AsymmetricKey, data []byte) ([]byte, error) {
	priv, err := rsakey.ParsePrivateKey(key.Content)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(data)
	return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
}

func signDsa(key *keytool.AsymmetricKey, data []byte) ([]byte, error) {
	priv, err := dsakey.ParsePrivateKey(key.Content)
	if err != nil {
		return nil, err
	}
	r, s, err := dsa.Sign(rand.Reader, priv, dsaDigest(priv.Q, data))
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(dsaSignature{r, s})
}

func signEc(key *keytool.AsymmetricKey, data []byte) ([]byte, error) {
	if key.IsCurve25519() {
		signer, err := eckey.GetEd25519PrivateKeyFromCurve25519(key)
		if err != nil {
			return nil, err
		}
		return ed25519.Sign(signer, data), nil
	}
	priv, err := eckey.ParsePrivateKey(key.Content)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(data)
	return ecdsa.SignASN1(rand.Reader, priv.Ecdsa, digest[:])
}

// dsaDigest truncates the SHA-256 digest to the byte length of Q.
func dsaDigest(q *big.Int, data []byte) []byte {
	digest := sha256.Sum256(data)
	n := q.BitLen() / 8
	if n > len(digest) {
		n = len(digest)
	}
	return digest[:n]
}

// Verify accepts the private or the public half of the signing pair, except
// for curve25519 where the Ed25519 verification key only follows from the
// private scalar.
func Verify(key *keytool.AsymmetricKey, sig *keytool.Signature) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	if sig == nil {
		return false, fmt.Errorf("%w: signature cannot be nil", keytool.ErrInvalidArgument)
	}

	switch key.Cipher {
	case keytool.Cipher_RSA:
		pub, err := rsaPublic(key)
		if err != nil {
			return false, err
		}
		digest := sha256.Sum256(sig.SignedData)
		return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig.Content) == nil, nil
	case keytool.Cipher_DSA:
		pub, err := dsaPublic(key)
		if err != nil {
			return false, err
		}
		var rs dsaSignature
		rest, err := asn1.Unmarshal(sig.Content, &rs)
		if err != nil || len(rest) > 0 || rs.R == nil || rs.S == nil {
			return false, nil
		}
		return dsa.Verify(pub, dsaDigest(pub.Q, sig.SignedData), rs.R, rs.S), nil
	case keytool.Cipher_EC:
		return verifyEc(key, sig)
	}
	return false, fmt.Errorf("%w: %v keys cannot verify", keytool.ErrUnsupportedKeyType, key.Cipher)
}

func verifyEc(key *keytool.AsymmetricKey, sig *keytool.Signature) (bool, error) {
	if key.IsCurve25519() {
		if !key.IsPrivateKey() {
			return false, fmt.Errorf("%w: curve25519 signatures are checked with the private key", keytool.ErrKeyTypeMismatch)
		}
		pub, err := eckey.GetEd25519PublicKeyFromCurve25519(key)
		if err != nil {
			return false, err
		}
		return ed25519.Verify(pub, sig.SignedData, sig.Content), nil
	}

	var pub *ecdsa.PublicKey
	if key.IsPrivateKey() {
		priv, err := eckey.ParsePrivateKey(key.Content)
		if err != nil {
			return false, err
		}
		pub = &priv.Ecdsa.PublicKey
	} else {
		parsed, err := eckey.ParsePublicKey(key.Content)
		if err != nil {
			return false, err
		}
		pub = parsed.Ecdsa
	}
	digest := sha256.Sum256(sig.SignedData)
	return ecdsa.VerifyASN1(pub, digest[:], sig.Content), nil
}

func rsaPublic(key *keytool.AsymmetricKey) (*rsa.PublicKey, error) {
	if key.IsPrivateKey() {
		priv, err := rsakey.ParsePrivateKey(key.Content)
		if err != nil {
			return nil, err
		}
		return &priv.PublicKey, nil
	}
	return rsakey.ParsePublicKey(key.Content)
}

func dsaPublic(key *keytool.AsymmetricKey) (*dsa.PublicKey, error) {
	if key.IsPrivateKey() {
		priv, err := dsakey.ParsePrivateKey(key.Content)
		if err != nil {
			return nil, err
		}
		return &priv.PublicKey, nil
	}
	return dsakey.ParsePublicKey(key.Content)
}
