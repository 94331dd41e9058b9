package provider

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keytool "github.com/overnest/strongsalt-keytool-go"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/oid"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
	"github.com/overnest/strongsalt-keytool-go/sec1"
)

type pairCase struct {
	cipher *keytool.CipherType
	params KeyPairParams
}

var pairCases = []pairCase{
	{keytool.Cipher_RSA, KeyPairParams{KeySize: 1024}},
	{keytool.Cipher_DSA, KeyPairParams{KeySize: 1024}},
	{keytool.Cipher_ElGamal, KeyPairParams{KeySize: 1024}},
	{keytool.Cipher_EC, KeyPairParams{Curve: "secp256r1"}},
	{keytool.Cipher_EC, KeyPairParams{Curve: "curve25519"}},
}

func TestCreateGetVerify(t *testing.T) {
	p := New()
	for _, c := range pairCases {
		t.Run(c.cipher.Name+c.params.Curve, func(t *testing.T) {
			pair, err := p.CreateKeyPair(c.cipher, c.params)
			require.NoError(t, err)
			assert.True(t, p.VerifyKeyPair(pair))

			private, err := p.GetPrivateKey(pair.Private.Content)
			require.NoError(t, err)
			assert.Equal(t, c.cipher, private.Cipher)
			assert.Equal(t, pair.Private.KeySize, private.KeySize)

			public, err := p.GetPublicKey(pair.Public.Content)
			require.NoError(t, err)
			assert.Equal(t, c.cipher, public.Cipher)

			assert.True(t, p.VerifyKeyPair(&keytool.KeyPair{Private: private, Public: public}))
		})
	}
}

func TestPemRoundTrip(t *testing.T) {
	p := New()
	for _, c := range pairCases {
		pair, err := p.CreateKeyPair(c.cipher, c.params)
		require.NoError(t, err)
		for _, key := range []*keytool.AsymmetricKey{pair.Private, pair.Public} {
			text, err := pkcs8.ToPem(key)
			require.NoError(t, err)

			fromPem, err := p.GetKeyFromPem(text)
			require.NoError(t, err)
			assert.Equal(t, key.Type, fromPem.Type)

			fromDer, err := p.GetKeyFromDer(fromPem.Content)
			require.NoError(t, err)
			again, err := pkcs8.ToPem(fromDer)
			require.NoError(t, err)
			assert.Equal(t, text, again)
		}
	}
}

func TestGetKeyFromSec1Pem(t *testing.T) {
	p := New()
	pair, err := p.CreateKeyPair(keytool.Cipher_EC, KeyPairParams{Curve: "P-384"})
	require.NoError(t, err)
	text, err := sec1.ToPem(pair.Private)
	require.NoError(t, err)

	key, err := p.GetKeyFromPem(text)
	require.NoError(t, err)
	assert.Equal(t, "secp384r1", key.CurveName)
	assert.True(t, p.VerifyKeyPair(&keytool.KeyPair{Private: key, Public: pair.Public}))
}

func TestWrongStructure(t *testing.T) {
	p := New()
	pair, err := p.CreateKeyPair(keytool.Cipher_RSA, KeyPairParams{KeySize: 1024})
	require.NoError(t, err)

	_, err = p.GetPrivateKey(pair.Public.Content)
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)
	_, err = p.GetPublicKey(pair.Private.Content)
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)
	_, err = p.GetKeyFromDer([]byte("not a key"))
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)
}

func TestUnknownAlgorithm(t *testing.T) {
	p := New()
	der, err := pkcs8.MarshalSubjectPublicKeyInfo(pkix.AlgorithmIdentifier{
		Algorithm: asn1.ObjectIdentifier{1, 3, 101, 112},
	}, make([]byte, 32))
	require.NoError(t, err)

	_, err = p.GetPublicKey(der)
	assert.ErrorIs(t, err, keytool.ErrUnsupportedKeyType)
	_, err = p.GetKeyFromDer(der)
	assert.ErrorIs(t, err, keytool.ErrUnsupportedKeyType)
}

func TestGetEncryptedPrivateKey(t *testing.T) {
	p := New()
	params, err := pkcs8.AlgorithmWithParams(oid.PbeWithShaAnd3KeyTripleDesCbc, struct {
		Salt       []byte
		Iterations int
	}{make([]byte, 8), 2048})
	require.NoError(t, err)
	der, err := pkcs8.MarshalEncryptedPrivateKeyInfo(params, make([]byte, 16))
	require.NoError(t, err)

	key, err := p.GetEncryptedPrivateKey(der)
	require.NoError(t, err)
	assert.True(t, key.IsEncrypted())
	assert.Equal(t, keytool.Cipher_Pkcs12Encrypted, key.Cipher)
	assert.Equal(t, der, key.Content)

	key, err = p.GetKeyFromDer(der)
	require.NoError(t, err)
	assert.True(t, key.IsEncrypted())

	text, err := pkcs8.ToPem(key)
	require.NoError(t, err)
	assert.Contains(t, text, "ENCRYPTED PRIVATE KEY")
	key, err = p.GetKeyFromPem(text)
	require.NoError(t, err)
	assert.True(t, key.IsEncrypted())

	unknown, err := pkcs8.MarshalEncryptedPrivateKeyInfo(pkix.AlgorithmIdentifier{Algorithm: oid.RsaEncryption}, []byte{1})
	require.NoError(t, err)
	_, err = p.GetEncryptedPrivateKey(unknown)
	assert.ErrorIs(t, err, keytool.ErrUnsupportedKeyType)
}

func TestVerifyRejectsMixedCiphers(t *testing.T) {
	p := New()
	rsaPair, err := p.CreateKeyPair(keytool.Cipher_RSA, KeyPairParams{KeySize: 1024})
	require.NoError(t, err)
	ecPair, err := p.CreateKeyPair(keytool.Cipher_EC, KeyPairParams{Curve: "P-256"})
	require.NoError(t, err)

	assert.False(t, p.VerifyKeyPair(&keytool.KeyPair{Private: rsaPair.Private, Public: ecPair.Public}))
	assert.False(t, p.VerifyKeyPair(nil))

	_, err = p.CreateKeyPair(keytool.Cipher_Unknown, KeyPairParams{KeySize: 1024})
	assert.ErrorIs(t, err, keytool.ErrUnsupportedKeyType)
}

func TestGetPublicKeyFromPrivate(t *testing.T) {
	p := New()
	for _, c := range pairCases {
		t.Run(c.cipher.Name+c.params.Curve, func(t *testing.T) {
			pair, err := p.CreateKeyPair(c.cipher, c.params)
			require.NoError(t, err)

			public, err := p.GetPublicKeyFromPrivate(pair.Private)
			require.NoError(t, err)
			assert.Equal(t, pair.Public.Content, public.Content)
			assert.Equal(t, pair.Public.KeySize, public.KeySize)

			_, err = p.GetPublicKeyFromPrivate(pair.Public)
			assert.ErrorIs(t, err, keytool.ErrKeyTypeMismatch)
		})
	}

	_, err := p.GetPublicKeyFromPrivate(nil)
	assert.ErrorIs(t, err, keytool.ErrInvalidArgument)
}
