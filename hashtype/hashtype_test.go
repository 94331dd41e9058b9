package hashtype

import (
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overnest/strongsalt-keytool-go/oid"
)

func TestSizes(t *testing.T) {
	assert.Equal(t, 20, TypeSha1.Size())
	assert.Equal(t, 64, TypeSha1.BlockSize())
	assert.Equal(t, 32, TypeSha256.Size())
	assert.Equal(t, 64, TypeSha256.BlockSize())
	assert.Equal(t, 64, TypeSha512.Size())
	assert.Equal(t, 128, TypeSha512.BlockSize())
}

func TestFromHmacOID(t *testing.T) {
	hashType, err := FromHmacOID(nil)
	require.NoError(t, err)
	assert.Equal(t, TypeSha1, hashType)

	hashType, err = FromHmacOID(oid.HmacWithSha512)
	require.NoError(t, err)
	assert.Equal(t, TypeSha512, hashType)

	_, err = FromHmacOID(asn1.ObjectIdentifier{1, 2, 3})
	assert.Error(t, err)
}
