package curves

import (
	"crypto/elliptic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overnest/strongsalt-keytool-go/oid"
)

func TestByName(t *testing.T) {
	for name, want := range map[string]*Curve{
		"secp256r1":  Secp256r1,
		"P-256":      Secp256r1,
		"prime256v1": Secp256r1,
		"p-384":      Secp384r1,
		"SECP521R1":  Secp521r1,
		"prime224v1": Secp224r1,
		"curve25519": Curve25519,
		"X25519":     Curve25519,
	} {
		curve, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, want, curve, name)
	}
	_, ok := ByName("secp256k1")
	assert.False(t, ok)
}

func TestLookups(t *testing.T) {
	curve, ok := ByOID(oid.Secp384r1)
	require.True(t, ok)
	assert.Equal(t, Secp384r1, curve)

	curve, ok = BySSHName("nistp521")
	require.True(t, ok)
	assert.Equal(t, Secp521r1, curve)
	_, ok = BySSHName("")
	assert.False(t, ok)

	curve, ok = ByParams(elliptic.P256().Params())
	require.True(t, ok)
	assert.Equal(t, Secp256r1, curve)
	assert.Equal(t, "secp224r1", NameFromParams(elliptic.P224().Params()))
	assert.Equal(t, "", NameFromParams(nil))
}

func TestSshAllowList(t *testing.T) {
	var allowed []string
	for _, curve := range All() {
		if curve.SSHSupported() {
			allowed = append(allowed, curve.Name)
		}
	}
	assert.ElementsMatch(t, []string{"secp256r1", "secp384r1", "secp521r1", "curve25519"}, allowed)
}

func TestByteSize(t *testing.T) {
	assert.Equal(t, 32, Curve25519.ByteSize())
	assert.Equal(t, 66, Secp521r1.ByteSize())
	assert.Equal(t, 28, Secp224r1.ByteSize())
	assert.True(t, Curve25519.IsCurve25519())
	assert.False(t, Secp256r1.IsCurve25519())
}
