// Package sshkey writes and reads keys in the OpenSSH and SSH2 (RFC 4716)
// formats.
package sshkey

import (
	"bytes"
	"crypto/dsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/ssh"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/curves"
	"github.com/overnest/strongsalt-keytool-go/dsakey"
	"github.com/overnest/strongsalt-keytool-go/eckey"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/rsakey"
	"github.com/overnest/strongsalt-keytool-go/x25519"
)

const (
	KeyAlgoRSA      = "ssh-rsa"
	KeyAlgoDSA      = "ssh-dss"
	KeyAlgoECDSA256 = "ecdsa-sha2-nistp256"
	KeyAlgoECDSA384 = "ecdsa-sha2-nistp384"
	KeyAlgoECDSA521 = "ecdsa-sha2-nistp521"
	KeyAlgoED25519  = "ssh-ed25519"

	ecdsaPrefix = "ecdsa-sha2-"

	Ssh2Begin = "---- BEGIN SSH2 PUBLIC KEY ----"
	Ssh2End   = "---- END SSH2 PUBLIC KEY ----"

	MaxCommentLength = 1024
	lineLength       = 70
)

var headers = []string{
	KeyAlgoRSA, KeyAlgoDSA, KeyAlgoECDSA256, KeyAlgoECDSA384, KeyAlgoECDSA521, KeyAlgoED25519,
}

/*
** KEY BLOBS
 */

// publicKeyOf checks the cipher of key and returns its public half, deriving
// it when key is private.
func publicKeyOf(key *keytool.AsymmetricKey, provider KeyProvider) (*keytool.AsymmetricKey, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key cannot be nil", keytool.ErrInvalidArgument)
	}
	if key.Cipher != provider.Cipher() {
		return nil, fmt.Errorf("%w: expected %v key, got %v", keytool.ErrKeyTypeMismatch, provider.Cipher(), key.Cipher)
	}
	if key.IsPrivateKey() {
		return provider.DerivePublicKey(key)
	}
	return key, nil
}

func rsaBlob(key *keytool.AsymmetricKey) ([]byte, error) {
	public, err := publicKeyOf(key, rsakey.New())
	if err != nil {
		return nil, err
	}
	pub, err := rsakey.ParsePublicKey(public.Content)
	if err != nil {
		return nil, err
	}
	return NewWriter().
		String([]byte(KeyAlgoRSA)).
		Mpint(big.NewInt(int64(pub.E))).
		Mpint(pub.N).
		Bytes()
}

func dsaBlob(key *keytool.AsymmetricKey) ([]byte, error) {
	public, err := publicKeyOf(key, dsakey.New())
	if err != nil {
		return nil, err
	}
	pub, err := dsakey.ParsePublicKey(public.Content)
	if err != nil {
		return nil, err
	}
	return NewWriter().
		String([]byte(KeyAlgoDSA)).
		Mpint(pub.P).
		Mpint(pub.Q).
		Mpint(pub.G).
		Mpint(pub.Y).
		Bytes()
}

// ecBlob writes NIST keys as ecdsa-sha2-nistpXXX. curve25519 keys become
// ssh-ed25519 keys holding the Ed25519 key derived from the private scalar,
// the same key GetOpenSshPrivateKey writes, so they need the private key.
func ecBlob(key *keytool.AsymmetricKey) ([]byte, error) {
	if key != nil && key.Cipher == keytool.Cipher_EC && key.IsCurve25519() {
		if !key.IsPrivateKey() {
			return nil, fmt.Errorf("%w: the %v SSH key is derived from the private key",
				keytool.ErrKeyTypeMismatch, keytool.Curve25519Name)
		}
		edPub, err := eckey.GetEd25519PublicKeyFromCurve25519(key)
		if err != nil {
			return nil, err
		}
		return NewWriter().String([]byte(KeyAlgoED25519)).String(edPub).Bytes()
	}

	public, err := publicKeyOf(key, eckey.New())
	if err != nil {
		return nil, err
	}
	pub, err := eckey.ParsePublicKey(public.Content)
	if err != nil {
		return nil, err
	}
	if !pub.Curve.SSHSupported() {
		return nil, fmt.Errorf("%w: %v cannot be used for SSH keys", keytool.ErrUnsupportedCurve, pub.Curve.Name)
	}
	if pub.Curve.IsCurve25519() {
		return nil, fmt.Errorf("%w: key content is %v but the key is labelled %v",
			keytool.ErrInvalidKey, pub.Curve.Name, key.CurveName)
	}
	return NewWriter().
		String([]byte(ecdsaPrefix + pub.Curve.SSHName)).
		String([]byte(pub.Curve.SSHName)).
		String(pub.Point).
		Bytes()
}

// MarshalPublicKey returns the SSH wire blob of a key's public half.
func MarshalPublicKey(key *keytool.AsymmetricKey) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key cannot be nil", keytool.ErrInvalidArgument)
	}
	switch key.Cipher {
	case keytool.Cipher_RSA:
		return rsaBlob(key)
	case keytool.Cipher_DSA:
		return dsaBlob(key)
	case keytool.Cipher_EC:
		return ecBlob(key)
	}
	return nil, fmt.Errorf("%w: %v keys have no SSH form", keytool.ErrUnsupportedKeyType, key.Cipher)
}

func content(blob []byte, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// GetRsaPublicKeyContent and its siblings return the base64 key blob.
func GetRsaPublicKeyContent(key *keytool.AsymmetricKey) (string, error) {
	return content(rsaBlob(key))
}

func GetDsaPublicKeyContent(key *keytool.AsymmetricKey) (string, error) {
	return content(dsaBlob(key))
}

func GetEcPublicKeyContent(key *keytool.AsymmetricKey) (string, error) {
	return content(ecBlob(key))
}

func GetPublicKeyContent(key *keytool.AsymmetricKey) (string, error) {
	return content(MarshalPublicKey(key))
}

/*
** TEXT FORMATS
 */

func checkComment(comment string) error {
	if len(comment) > MaxCommentLength {
		return fmt.Errorf("%w: %d bytes, limit is %d", keytool.ErrCommentTooLong, len(comment), MaxCommentLength)
	}
	if strings.ContainsAny(comment, "\r\n") {
		return fmt.Errorf("%w: comment cannot span lines", keytool.ErrInvalidArgument)
	}
	return nil
}

// GetOpenSshPublicKey returns "<header> <base64> [comment]" without a
// trailing newline.
func GetOpenSshPublicKey(key *keytool.AsymmetricKey, comment string) (string, error) {
	if err := checkComment(comment); err != nil {
		return "", err
	}
	blob, err := MarshalPublicKey(key)
	if err != nil {
		return "", err
	}
	header, err := NewReader(blob).String()
	if err != nil {
		return "", err
	}
	line := string(header) + " " + base64.StdEncoding.EncodeToString(blob)
	if comment != "" {
		line += " " + comment
	}
	return line, nil
}

// GetSsh2PublicKey returns an RFC 4716 block. The comment header is split
// into 70 character lines, continued with a backslash, and the body is
// wrapped at 70 columns.
func GetSsh2PublicKey(key *keytool.AsymmetricKey, comment string) (string, error) {
	if err := checkComment(comment); err != nil {
		return "", err
	}
	blob, err := MarshalPublicKey(key)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(Ssh2Begin + "\n")
	if comment != "" {
		header := `Comment: "` + comment + `"`
		for len(header) > lineLength {
			sb.WriteString(header[:lineLength-1] + "\\\n")
			header = header[lineLength-1:]
		}
		sb.WriteString(header + "\n")
	}
	sb.WriteString(wrap(base64.StdEncoding.EncodeToString(blob), lineLength))
	sb.WriteString(Ssh2End + "\n")
	return sb.String(), nil
}

// wrap splits s into lines of at most width characters, each ending in a
// newline.
func wrap(s string, width int) string {
	var sb strings.Builder
	for len(s) > width {
		sb.WriteString(s[:width] + "\n")
		s = s[width:]
	}
	if s != "" {
		sb.WriteString(s + "\n")
	}
	return sb.String()
}

// IsSshKey is a prefix test against the SSH2 opener and the public key
// headers. Certificate types do not match.
func IsSshKey(text string) bool {
	if strings.HasPrefix(text, Ssh2Begin) {
		return true
	}
	for _, header := range headers {
		if strings.HasPrefix(text, header+" ") {
			return true
		}
	}
	return false
}

/*
** PARSING
 */

// GetKeyFromSsh reads an OpenSSH public key line, an SSH2 block or a bare
// base64 key blob.
func GetKeyFromSsh(text string) (*keytool.AsymmetricKey, error) {
	key, _, err := ParseSsh(text)
	return key, err
}

// ParseSsh is GetKeyFromSsh that also returns the comment.
func ParseSsh(text string) (*keytool.AsymmetricKey, string, error) {
	key, _, comment, err := readSsh(text)
	return key, comment, err
}

// readSsh decodes text and checks that any header agrees with the blob.
func readSsh(text string) (*keytool.AsymmetricKey, []byte, string, error) {
	text = strings.TrimSpace(text)
	var header, body, comment string
	if strings.HasPrefix(text, Ssh2Begin) {
		var err error
		if body, comment, err = splitSsh2(text); err != nil {
			return nil, nil, "", err
		}
	} else {
		header, body, comment = splitLine(text)
	}

	blob, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: SSH key body is not base64: %v", keytool.ErrInvalidKey, err)
	}
	key, keyType, err := parseBlob(blob)
	if err != nil {
		return nil, nil, "", err
	}
	if header != "" && header != keyType {
		return nil, nil, "", fmt.Errorf("%w: header %v does not match %v key", keytool.ErrInvalidKey, header, keyType)
	}
	return key, blob, comment, nil
}

// splitLine takes "[header] base64 [comment]". Fields may be separated by
// any run of blanks; the comment keeps its inner spacing.
func splitLine(text string) (header, body, comment string) {
	fields := strings.Fields(text)
	switch len(fields) {
	case 0:
		return "", "", ""
	case 1:
		return "", fields[0], ""
	}
	header, body = fields[0], fields[1]
	rest := strings.TrimLeft(text, " \t")[len(header):]
	rest = strings.TrimLeft(rest, " \t")[len(body):]
	return header, body, strings.TrimSpace(rest)
}

// splitSsh2 returns the base64 body and the comment of an RFC 4716 block.
func splitSsh2(text string) (string, string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var body strings.Builder
	var comment string
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == Ssh2End {
			return body.String(), comment, nil
		}
		if strings.Contains(line, ":") && body.Len() == 0 {
			// header, possibly continued over several lines
			for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
				i++
				line = line[:len(line)-1] + strings.TrimRight(lines[i], " \t\r")
			}
			tag, value, _ := strings.Cut(line, ":")
			if strings.EqualFold(strings.TrimSpace(tag), "Comment") {
				comment = unquote(strings.TrimSpace(value))
			}
			continue
		}
		body.WriteString(line)
	}
	return "", "", fmt.Errorf("%w: missing %v", keytool.ErrInvalidKey, Ssh2End)
}

// unquote strips one pair of enclosing double quotes.
func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}

// parseBlob dispatches on the key type field, and for ECDSA keys on the
// curve field that follows it.
func parseBlob(blob []byte) (*keytool.AsymmetricKey, string, error) {
	r := NewReader(blob)
	keyType, err := r.String()
	if err != nil {
		return nil, "", err
	}

	var key *keytool.AsymmetricKey
	switch string(keyType) {
	case KeyAlgoRSA:
		key, err = parseRsa(r)
	case KeyAlgoDSA:
		key, err = parseDsa(r)
	case KeyAlgoED25519:
		key, err = parseEd25519(r)
	default:
		if !strings.HasPrefix(string(keyType), ecdsaPrefix) {
			return nil, "", fmt.Errorf("%w: %q", keytool.ErrUnsupportedSshKeyType, keyType)
		}
		key, err = parseEcdsa(r, string(keyType))
	}
	if err != nil {
		return nil, "", err
	}
	if err = r.Finish(); err != nil {
		return nil, "", err
	}
	return key, string(keyType), nil
}

func parseRsa(r *Reader) (*keytool.AsymmetricKey, error) {
	e, err := r.Mpint()
	if err != nil {
		return nil, err
	}
	n, err := r.Mpint()
	if err != nil {
		return nil, err
	}
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 || n.Sign() == 0 {
		return nil, fmt.Errorf("%w: bad RSA public key", keytool.ErrInvalidKey)
	}
	der, err := x509.MarshalPKIXPublicKey(&rsa.PublicKey{N: n, E: int(e.Int64())})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	return keytool.NewKey(keytool.Cipher_RSA, keytool.KeyTypePublic, der, n.BitLen())
}

func parseDsa(r *Reader) (*keytool.AsymmetricKey, error) {
	values := make([]*big.Int, 4)
	for i := range values {
		v, err := r.Mpint()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	pub := &dsa.PublicKey{
		Parameters: dsa.Parameters{P: values[0], Q: values[1], G: values[2]},
		Y:          values[3],
	}
	der, err := dsakey.MarshalPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return keytool.NewKey(keytool.Cipher_DSA, keytool.KeyTypePublic, der, pub.P.BitLen())
}

func parseEcdsa(r *Reader, keyType string) (*keytool.AsymmetricKey, error) {
	curveID, err := r.String()
	if err != nil {
		return nil, err
	}
	curve, ok := curves.BySSHName(string(curveID))
	if !ok || curve.IsCurve25519() {
		return nil, fmt.Errorf("%w: %q", keytool.ErrUnsupportedSshKeyType, curveID)
	}
	if keyType != ecdsaPrefix+curve.SSHName {
		return nil, fmt.Errorf("%w: %v key on curve %v", keytool.ErrInvalidKey, keyType, curveID)
	}
	point, err := r.String()
	if err != nil {
		return nil, err
	}
	return ecPublicKey(curve, point)
}

func parseEd25519(r *Reader) (*keytool.AsymmetricKey, error) {
	edwards, err := r.String()
	if err != nil {
		return nil, err
	}
	u, err := x25519.EdwardsToMontgomery(edwards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	return ecPublicKey(curves.Curve25519, u)
}

func ecPublicKey(curve *curves.Curve, point []byte) (*keytool.AsymmetricKey, error) {
	der, err := eckey.MarshalPublicKey(curve, point)
	if err != nil {
		return nil, err
	}
	return keytool.NewEcKey(keytool.KeyTypePublic, der, curve.FieldSize, curve.Name)
}

// Fingerprint returns the OpenSSH SHA256 fingerprint of a key's public half.
func Fingerprint(key *keytool.AsymmetricKey) (string, error) {
	blob, err := MarshalPublicKey(key)
	if err != nil {
		return "", err
	}
	return fingerprint(blob)
}

// FingerprintSsh fingerprints an SSH public key as written, without
// converting it first.
func FingerprintSsh(text string) (string, error) {
	_, blob, _, err := readSsh(text)
	if err != nil {
		return "", err
	}
	return fingerprint(blob)
}

func fingerprint(blob []byte) (string, error) {
	pub, err := ssh.ParsePublicKey(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", keytool.ErrInvalidKey, err)
	}
	return ssh.FingerprintSHA256(pub), nil
}

// VerifyKeyPair reports whether the SSH public key in text is the public
// half of private.
func VerifyKeyPair(private *keytool.AsymmetricKey, text string) (bool, error) {
	if private == nil || !private.IsPrivateKey() {
		return false, fmt.Errorf("%w: an unencrypted private key is required", keytool.ErrInvalidArgument)
	}
	_, blob, _, err := readSsh(text)
	if err != nil {
		return false, err
	}
	expected, err := MarshalPublicKey(private)
	if err != nil {
		return false, err
	}
	return bytes.Equal(expected, blob), nil
}
