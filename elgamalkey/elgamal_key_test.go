package elgamalkey

import (
	"math/big"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp/elgamal"
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
	assert.Equal(t, keytool.Cipher_ElGamal, pair.Cipher())
	assert.Equal(t, 1024, pair.Public.KeySize)
	assert.True(t, p.VerifyKeyPair(pair))
}

func TestVerifyFlippedPrivateBit(t *testing.T) {
	p, pair := createPair(t)
	priv, err := ParsePrivateKey(pair.Private.Content)
	require.NoError(t, err)

	priv.X = new(big.Int).Xor(priv.X, big.NewInt(4))
	der, err := MarshalPrivateKey(priv)
	require.NoError(t, err)
	flipped, err := keytool.NewKey(keytool.Cipher_ElGamal, keytool.KeyTypePrivate, der, 1024)
	require.NoError(t, err)

	assert.False(t, p.VerifyKeyPair(&keytool.KeyPair{Private: flipped, Public: pair.Public}))
}

func TestVerifyMismatchedGroup(t *testing.T) {
	p, first := createPair(t)
	_, second := createPair(t)
	assert.False(t, p.VerifyKeyPair(&keytool.KeyPair{Private: first.Private, Public: second.Public}))

	priv, err := ParsePrivateKey(first.Private.Content)
	require.NoError(t, err)
	pub, err := ParsePublicKey(first.Public.Content)
	require.NoError(t, err)
	zeroG := *priv
	zeroG.G = big.NewInt(0)
	assert.False(t, Verify(&zeroG, pub))
}

func TestVerifyNegativePrivateValue(t *testing.T) {
	priv := &elgamal.PrivateKey{
		PublicKey: elgamal.PublicKey{P: big.NewInt(15), G: big.NewInt(3), Y: big.NewInt(3)},
		X:         big.NewInt(-1),
	}
	privDer, err := MarshalPrivateKey(priv)
	require.NoError(t, err)
	pubDer, err := MarshalPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	_, err = ParsePrivateKey(privDer)
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)

	private, err := keytool.NewKey(keytool.Cipher_ElGamal, keytool.KeyTypePrivate, privDer, 4)
	require.NoError(t, err)
	public, err := keytool.NewKey(keytool.Cipher_ElGamal, keytool.KeyTypePublic, pubDer, 4)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		assert.False(t, New().VerifyKeyPair(&keytool.KeyPair{Private: private, Public: public}))
	})
	assert.NotPanics(t, func() {
		assert.False(t, Verify(priv, &priv.PublicKey))
	})
}

func TestEncryptDecrypt(t *testing.T) {
	_, pair := createPair(t)
	msg := []byte("session key")

	c1, c2, err := Encrypt(pair.Public, msg)
	require.NoError(t, err)
	plaintext, err := Decrypt(pair.Private, c1, c2)
	require.NoError(t, err)
	assert.Equal(t, msg, plaintext)

	_, _, err = Encrypt(pair.Private, msg)
	assert.ErrorIs(t, err, keytool.ErrInvalidArgument)
}

func TestGetKey(t *testing.T) {
	p, pair := createPair(t)

	key, err := p.GetKey(pair.Public.Content, keytool.KeyTypePublic)
	require.NoError(t, err)
	assert.Equal(t, pair.Public.Content, key.Content)

	_, err = p.GetKey(pair.Public.Content, keytool.KeyTypePrivate)
	assert.ErrorIs(t, err, keytool.ErrKeyTypeMismatch)
	_, err = p.GetKey(pair.Private.Content, keytool.KeyTypePublic)
	assert.ErrorIs(t, err, keytool.ErrKeyTypeMismatch)
	_, err = p.GetKey(nil, keytool.KeyTypePrivate)
	assert.ErrorIs(t, err, keytool.ErrInvalidKey)
}
