package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultSaltLengthBytes, c.Encryption.SaltLengthBytes)
	assert.Equal(t, DefaultIterations, c.Encryption.KeyDerivationIterations)
	assert.Equal(t, "dev", c.Log.Env)
	assert.NoError(t, c.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keytool.yaml")
	yaml := `
encryption:
  salt_length_bytes: 16
  key_derivation_iterations: 2048
log:
  env: prod
server:
  cors_allowed_origins: ["https://example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, c.Encryption.SaltLengthBytes)
	assert.Equal(t, 2048, c.Encryption.KeyDerivationIterations)
	assert.Equal(t, "prod", c.Log.Env)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, DefaultServerAddr, c.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, c.Server.CORSAllowedOrigins)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYTOOL_SALT_LENGTH_BYTES", "32")
	t.Setenv("KEYTOOL_KDF_ITERATIONS", " 500 ")
	t.Setenv("KEYTOOL_SERVER_ADDR", ":9000")
	t.Setenv("KEYTOOL_CORS_ORIGINS", "http://a, http://b,")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 32, c.Encryption.SaltLengthBytes)
	assert.Equal(t, 500, c.Encryption.KeyDerivationIterations)
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, []string{"http://a", "http://b"}, c.Server.CORSAllowedOrigins)
}

func TestValidateCollectsErrors(t *testing.T) {
	c := Default()
	c.Encryption.SaltLengthBytes = 4
	c.Encryption.KeyDerivationIterations = -1
	c.Log.Env = "staging"

	err := c.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
