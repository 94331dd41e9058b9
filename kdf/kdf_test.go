package kdf

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overnest/strongsalt-keytool-go/hashtype"
	"github.com/overnest/strongsalt-keytool-go/kdf/pkcs12"
)

func TestTypeFromName(t *testing.T) {
	assert.Equal(t, Type_Pbkdf2, TypeFromName("PBKDF2"))
	assert.Equal(t, Type_Pkcs12, TypeFromName("PKCS12"))
	assert.Nil(t, TypeFromName("ARGON2"))
}

func TestPbkdf2KnownAnswer(t *testing.T) {
	// RFC 6070 test vector 2
	key, err := Type_Pbkdf2.New(hashtype.TypeSha1, 0).DeriveKey([]byte("password"), []byte("salt"), 2, 20)
	require.NoError(t, err)
	assert.Equal(t, "ea6c014dc72d6f8ccd1ed92ace1d41f0d8de8957", hex.EncodeToString(key))
}

func TestPkcs12KeyAndIV(t *testing.T) {
	params := KdfParams{
		Type:       Type_Pkcs12,
		HashType:   hashtype.TypeSha1,
		Salt:       []byte{1, 2, 3, 4, 5, 6, 7, 8},
		Iterations: 100,
	}
	key, iv, err := DeriveKeyAndIV(params, "PassWord123", 24, 8)
	require.NoError(t, err)
	assert.Len(t, key, 24)
	assert.Len(t, iv, 8)
	assert.False(t, bytes.Equal(key[:8], iv))

	key2, iv2, err := DeriveKeyAndIV(params, "PassWord123", 24, 8)
	require.NoError(t, err)
	assert.Equal(t, key, key2)
	assert.Equal(t, iv, iv2)

	other, _, err := DeriveKeyAndIV(params, "PassWord124", 24, 0)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestPkcs12LongOutputSpansRounds(t *testing.T) {
	short := pkcs12.Derive(hashtype.TypeSha1, pkcs12.BMPPassword("pw"), []byte("saltsalt"), pkcs12.KeyMaterial, 3, 20)
	long := pkcs12.Derive(hashtype.TypeSha1, pkcs12.BMPPassword("pw"), []byte("saltsalt"), pkcs12.KeyMaterial, 3, 50)
	assert.Len(t, long, 50)
	assert.Equal(t, short, long[:20])
}

func TestPbkdf2CannotDeriveIV(t *testing.T) {
	params := KdfParams{Type: Type_Pbkdf2, HashType: hashtype.TypeSha256, Salt: []byte("salt"), Iterations: 1}
	_, _, err := DeriveKeyAndIV(params, "pw", 32, 16)
	assert.Error(t, err)
}

func TestBMPPassword(t *testing.T) {
	assert.Equal(t, []byte{0, 'a', 0, 'b', 0, 0}, pkcs12.BMPPassword("ab"))
	assert.Empty(t, pkcs12.BMPPassword(""))
}
