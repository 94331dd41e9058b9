package keytool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherTypeFromName(t *testing.T) {
	assert.Equal(t, Cipher_RSA, CipherTypeFromName("rsa"))
	assert.Equal(t, Cipher_ElGamal, CipherTypeFromName(" ELGAMAL "))
	assert.Equal(t, Cipher_AesEncrypted, CipherTypeFromName("AESENCRYPTED"))
	assert.Nil(t, CipherTypeFromName("ROT13"))

	assert.True(t, Cipher_Pkcs5Encrypted.Encrypted)
	assert.True(t, Cipher_Pkcs12Encrypted.Encrypted)
	assert.False(t, Cipher_EC.Encrypted)
	assert.Equal(t, "<nil>", (*CipherType)(nil).String())
}

func TestKeyTypeString(t *testing.T) {
	assert.Equal(t, "Public", KeyTypePublic.String())
	assert.Equal(t, "Private", KeyTypePrivate.String())
	assert.Equal(t, "Encrypted", KeyTypeEncrypted.String())
	assert.Equal(t, "Unknown", KeyType(0).String())
}

func TestNewKey(t *testing.T) {
	content := []byte{1, 2, 3}
	key, err := NewKey(Cipher_RSA, KeyTypePrivate, content, 2048)
	require.NoError(t, err)
	assert.True(t, key.IsPrivateKey())
	assert.False(t, key.IsEncrypted())
	assert.False(t, key.IsCurve25519())
	assert.Equal(t, "RSA Private key (2048 bits)", key.String())

	content[0] = 9
	assert.Equal(t, byte(1), key.Content[0])

	_, err = NewKey(Cipher_Unknown, KeyTypePublic, content, 0)
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
	_, err = NewKey(nil, KeyTypePublic, content, 0)
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
	_, err = NewKey(Cipher_AesEncrypted, KeyTypeEncrypted, content, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewKey(Cipher_EC, KeyTypePublic, content, 256)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewEcKey(t *testing.T) {
	key, err := NewEcKey(KeyTypePublic, []byte{4}, 255, "Curve25519")
	require.NoError(t, err)
	assert.True(t, key.IsCurve25519())
	assert.Equal(t, "EC Public key (Curve25519, 255 bits)", key.String())

	key, err = NewEcKey(KeyTypePrivate, []byte{1}, 256, "secp256r1")
	require.NoError(t, err)
	assert.False(t, key.IsCurve25519())

	_, err = NewEcKey(KeyTypePrivate, []byte{1}, 256, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewEcKey(KeyTypeEncrypted, []byte{1}, 256, "secp256r1")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEncryptedKeyPassword(t *testing.T) {
	key, err := NewEncryptedKey(Cipher_Pkcs12Encrypted, []byte{1}, "")
	require.NoError(t, err)
	assert.True(t, key.IsEncrypted())
	assert.False(t, key.IsPrivateKey())
	assert.Empty(t, key.Password)

	withPassword := key.WithPassword("secret")
	assert.Equal(t, "secret", withPassword.Password)
	assert.Empty(t, key.Password)
	assert.Equal(t, key.Content, withPassword.Content)

	_, err = NewEncryptedKey(Cipher_RSA, []byte{1}, "")
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
}

func TestNewKeyPair(t *testing.T) {
	private, err := NewKey(Cipher_DSA, KeyTypePrivate, []byte{1}, 1024)
	require.NoError(t, err)
	public, err := NewKey(Cipher_DSA, KeyTypePublic, []byte{2}, 1024)
	require.NoError(t, err)
	rsaPublic, err := NewKey(Cipher_RSA, KeyTypePublic, []byte{3}, 1024)
	require.NoError(t, err)

	pair, err := NewKeyPair(private, public)
	require.NoError(t, err)
	assert.Equal(t, Cipher_DSA, pair.Cipher())

	_, err = NewKeyPair(public, private)
	assert.ErrorIs(t, err, ErrKeyTypeMismatch)
	_, err = NewKeyPair(private, rsaPublic)
	assert.ErrorIs(t, err, ErrKeyTypeMismatch)
	_, err = NewKeyPair(private, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, Cipher_Unknown, (*KeyPair)(nil).Cipher())
}
