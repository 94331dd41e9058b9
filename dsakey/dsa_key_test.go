package dsakey

import (
	"crypto/dsa"
	"crypto/x509"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keytool "github.com/overnest/strongsalt-keytool-go"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
)

func createPair(t *testing.T) (*Provider, *keytool.KeyPair) {
	p := New()
	pair, err := p.CreateKeyPair(KeyPairParams{KeySize: 1024})
	require.NoError(t, err)
	return p, pair
}

func TestCreateAndVerify(t *testing.T) {
	p, pair := createPair(t)
	assert.Equal(t, keytool.Cipher_DSA, pair.Cipher())
	assert.Equal(t, 1024, pair.Private.KeySize)
	assert.True(t, p.VerifyKeyPair(pair))
}

func TestPublicKeyIsPkix(t *testing.T) {
	_, pair := createPair(t)
	key, err := x509.ParsePKIXPublicKey(pair.Public.Content)
	require.NoError(t, err)
	pub, ok := key.(*dsa.PublicKey)
	require.True(t, ok)

	ours, err := ParsePublicKey(pair.Public.Content)
	require.NoError(t, err)
	assert.Equal(t, 0, pub.Y.Cmp(ours.Y))
	assert.Equal(t, 0, pub.P.Cmp(ours.P))
}

func TestCreateRejectsBadParams(t *testing.T) {
	p := New()
	_, err := p.CreateKeyPair(KeyPairParams{KeySize: 1536})
	assert.ErrorIs(t, err, keytool.ErrInvalidArgument)
	_, err = p.CreateKeyPair(KeyPairParams{Curve: "P-256"})
	assert.ErrorIs(t, err, keytool.ErrInvalidArgument)
}

func TestVerifyFlippedPrivateBit(t *testing.T) {
	p, pair := createPair(t)
	priv, err := ParsePrivateKey(pair.Private.Content)
	require.NoError(t, err)

	priv.X = new(big.Int).Xor(priv.X, big.NewInt(1))
	der, err := MarshalPrivateKey(priv)
	require.NoError(t, err)
	flipped, err := keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePrivate, der, 1024)
	require.NoError(t, err)

	assert.False(t, p.VerifyKeyPair(&keytool.KeyPair{Private: flipped, Public: pair.Public}))
}

func TestVerifyDifferentParameters(t *testing.T) {
	p, first := createPair(t)
	_, second := createPair(t)
	assert.False(t, p.VerifyKeyPair(&keytool.KeyPair{Private: first.Private, Public: second.Public}))
}

func TestVerifyZeroValues(t *testing.T) {
	_, pair := createPair(t)
	priv, err := ParsePrivateKey(pair.Private.Content)
	require.NoError(t, err)
	pub, err := ParsePublicKey(pair.Public.Content)
	require.NoError(t, err)
	assert.True(t, Verify(priv, pub))

	zeroY := *pub
	zeroY.Y = big.NewInt(0)
	assert.False(t, Verify(priv, &zeroY))

	zeroX := *priv
	zeroX.X = big.NewInt(0)
	assert.False(t, Verify(&zeroX, pub))
}

func TestVerifyNegativePrivateValue(t *testing.T) {
	params := dsa.Parameters{P: big.NewInt(15), Q: big.NewInt(7), G: big.NewInt(3)}
	priv := &dsa.PrivateKey{PublicKey: dsa.PublicKey{Parameters: params, Y: big.NewInt(3)}, X: big.NewInt(-1)}
	privDer, err := MarshalPrivateKey(priv)
	require.NoError(t, err)
	pubDer, err := MarshalPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	_, err = ParsePrivateKey(privDer)
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)

	private, err := keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePrivate, privDer, 4)
	require.NoError(t, err)
	public, err := keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePublic, pubDer, 4)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		assert.False(t, New().VerifyKeyPair(&keytool.KeyPair{Private: private, Public: public}))
	})

	// G has no inverse mod P, so G^-1 does not exist
	pub := &dsa.PublicKey{Parameters: params, Y: big.NewInt(3)}
	assert.NotPanics(t, func() {
		assert.False(t, Verify(priv, pub))
	})

	priv.X = big.NewInt(7)
	privDer, err = MarshalPrivateKey(priv)
	require.NoError(t, err)
	_, err = ParsePrivateKey(privDer)
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)
}

func TestGetKey(t *testing.T) {
	p, pair := createPair(t)

	key, err := p.GetKey(pair.Private.Content, keytool.KeyTypePrivate)
	require.NoError(t, err)
	assert.Equal(t, pair.Private.Content, key.Content)

	_, err = p.GetKey(pair.Public.Content, keytool.KeyTypePrivate)
	assert.ErrorIs(t, err, keytool.ErrKeyTypeMismatch)
	_, err = p.GetKey(pair.Private.Content, keytool.KeyTypePublic)
	assert.ErrorIs(t, err, keytool.ErrKeyTypeMismatch)
	_, err = p.GetKey([]byte("garbage"), keytool.KeyTypePublic)
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)
}

func TestParameterSizes(t *testing.T) {
	sizes, err := ParameterSizes(2048)
	assert.NoError(t, err)
	assert.Equal(t, dsa.L2048N256, sizes)
	_, err = ParameterSizes(4096)
	assert.Error(t, err)
}
