package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keytool "github.com/overnest/strongsalt-keytool-go"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/provider"
)

var data = []byte("the quick brown fox")

func TestSignVerify(t *testing.T) {
	p := provider.New()
	cases := []struct {
		cipher *keytool.CipherType
		params KeyPairParams
	}{
		{keytool.Cipher_RSA, KeyPairParams{KeySize: 1024}},
		{keytool.Cipher_DSA, KeyPairParams{KeySize: 1024}},
		{keytool.Cipher_EC, KeyPairParams{Curve: "secp256r1"}},
		{keytool.Cipher_EC, KeyPairParams{Curve: "secp521r1"}},
	}
	for _, c := range cases {
		t.Run(c.cipher.Name+c.params.Curve, func(t *testing.T) {
			pair, err := p.CreateKeyPair(c.cipher, c.params)
			require.NoError(t, err)

			sig, err := Sign(pair.Private, data)
			require.NoError(t, err)
			assert.Equal(t, data, sig.SignedData)

			ok, err := Verify(pair.Public, sig)
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = Verify(pair.Private, sig)
			require.NoError(t, err)
			assert.True(t, ok)

			tampered := &keytool.Signature{Content: sig.Content, SignedData: []byte("something else")}
			ok, err = Verify(pair.Public, tampered)
			require.NoError(t, err)
			assert.False(t, ok)

			other, err := p.CreateKeyPair(c.cipher, c.params)
			require.NoError(t, err)
			ok, err = Verify(other.Public, sig)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSignCurve25519(t *testing.T) {
	p := provider.New()
	pair, err := p.CreateKeyPair(keytool.Cipher_EC, KeyPairParams{Curve: "curve25519"})
	require.NoError(t, err)

	sig, err := Sign(pair.Private, data)
	require.NoError(t, err)
	assert.Len(t, sig.Content, 64)

	ok, err := Verify(pair.Private, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Verify(pair.Public, sig)
	assert.ErrorIs(t, err, keytool.ErrKeyTypeMismatch)
}

func TestSignRejects(t *testing.T) {
	p := provider.New()
	pair, err := p.CreateKeyPair(keytool.Cipher_RSA, KeyPairParams{KeySize: 1024})
	require.NoError(t, err)

	_, err = Sign(pair.Public, data)
	assert.ErrorIs(t, err, keytool.ErrKeyTypeMismatch)
	_, err = Sign(nil, data)
	assert.ErrorIs(t, err, keytool.ErrInvalidArgument)

	encrypted, err := keytool.NewEncryptedKey(keytool.Cipher_AesEncrypted, []byte{1}, "")
	require.NoError(t, err)
	_, err = Sign(encrypted, data)
	assert.ErrorIs(t, err, keytool.ErrInvalidArgument)

	elgamal, err := p.CreateKeyPair(keytool.Cipher_ElGamal, KeyPairParams{KeySize: 1024})
	require.NoError(t, err)
	_, err = Sign(elgamal.Private, data)
	assert.ErrorIs(t, err, keytool.ErrUnsupportedKeyType)

	_, err = Verify(pair.Public, nil)
	assert.ErrorIs(t, err, keytool.ErrInvalidArgument)
}

func TestVerifyGarbageSignature(t *testing.T) {
	p := provider.New()
	pair, err := p.CreateKeyPair(keytool.Cipher_DSA, KeyPairParams{KeySize: 1024})
	require.NoError(t, err)
	ok, err := Verify(pair.Public, &keytool.Signature{Content: []byte{1, 2, 3}, SignedData: data})
	require.NoError(t, err)
	assert.False(t, ok)
}
