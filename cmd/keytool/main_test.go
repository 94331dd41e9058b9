package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Setenv("KEYTOOL_KDF_ITERATIONS", "100")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateConvertVerify(t *testing.T) {
	dir := t.TempDir()
	private := filepath.Join(dir, "id")
	public := filepath.Join(dir, "id.pub")

	_, err := execute(t, "", "create", "--cipher", "EC", "--curve", "secp256r1",
		"--private-out", private, "--public-out", public)
	require.NoError(t, err)

	out, err := execute(t, "", "verify", "--private", private, "--public", public)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = execute(t, "", "convert", "--in", private, "--format", "openssh", "--public", "--comment", "me@host")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ecdsa-sha2-nistp256 "))

	sshPub := filepath.Join(dir, "id_ssh.pub")
	require.NoError(t, os.WriteFile(sshPub, []byte(out), 0600))
	out, err = execute(t, "", "verify", "--private", private, "--public", sshPub)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	fromSsh, err := execute(t, "", "fingerprint", "--in", sshPub)
	require.NoError(t, err)
	fromPem, err := execute(t, "", "fingerprint", "--in", private)
	require.NoError(t, err)
	assert.Equal(t, fromPem, fromSsh)
}

func TestEncryptDecrypt(t *testing.T) {
	dir := t.TempDir()
	private := filepath.Join(dir, "key.pem")
	encrypted := filepath.Join(dir, "key.enc.pem")

	_, err := execute(t, "", "create", "--cipher", "RSA", "--size", "1024",
		"--private-out", private, "--public-out", filepath.Join(dir, "key.pub.pem"))
	require.NoError(t, err)

	_, err = execute(t, "", "encrypt", "--in", private, "--encryption", "PKCS5", "--password", "pw", "--out", encrypted)
	require.NoError(t, err)
	data, err := os.ReadFile(encrypted)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ENCRYPTED PRIVATE KEY")

	_, err = execute(t, "", "decrypt", "--in", encrypted, "--password", "wrong")
	assert.Error(t, err)

	out, err := execute(t, string(data), "decrypt", "--in", "-", "--password", "pw")
	require.NoError(t, err)
	original, err := os.ReadFile(private)
	require.NoError(t, err)
	assert.Equal(t, string(original), out)
}

func TestCreateRejectsUnknownCipher(t *testing.T) {
	_, err := execute(t, "", "create", "--cipher", "ROT13")
	assert.Error(t, err)

	_, err = execute(t, "", "convert")
	assert.Error(t, err)
}

func TestSignAndVerifySignature(t *testing.T) {
	dir := t.TempDir()
	private := filepath.Join(dir, "id")
	public := filepath.Join(dir, "id.pub")
	sig := filepath.Join(dir, "data.sig")

	_, err := execute(t, "", "create", "--cipher", "EC", "--curve", "secp384r1",
		"--private-out", private, "--public-out", public)
	require.NoError(t, err)

	_, err = execute(t, "some data", "sign", "--key", private, "--in", "-", "--out", sig)
	require.NoError(t, err)

	out, err := execute(t, "some data", "verify-signature", "--key", public, "--in", "-", "--signature", sig)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = execute(t, "other data", "verify-signature", "--key", public, "--in", "-", "--signature", sig)
	assert.Error(t, err)

	_, err = execute(t, "some data", "sign", "--key", public, "--in", "-")
	assert.Error(t, err)
}
