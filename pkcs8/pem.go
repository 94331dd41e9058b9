package pkcs8

import (
	"encoding/pem"
	"fmt"
	"strings"

	keytool "github.com/overnest/strongsalt-keytool-go"
)

// PEM labels
const (
	LabelPrivateKey          = "PRIVATE KEY"
	LabelEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	LabelPublicKey           = "PUBLIC KEY"
	LabelEcPrivateKey        = "EC PRIVATE KEY"
)

// PemBlock is a decoded PEM block together with the key type its label
// announces.
type PemBlock struct {
	Label   string
	Type    keytool.KeyType
	Headers map[string]string
	Der     []byte
}

func LabelFor(key *keytool.AsymmetricKey) string {
	switch {
	case key.IsEncrypted():
		return LabelEncryptedPrivateKey
	case key.IsPrivateKey():
		return LabelPrivateKey
	default:
		return LabelPublicKey
	}
}

// ToPem encodes the key's DER content between BEGIN/END markers.
func ToPem(key *keytool.AsymmetricKey) (string, error) {
	if key == nil || len(key.Content) == 0 {
		return "", fmt.Errorf("%w: key has no content", keytool.ErrInvalidKey)
	}
	return EncodePem(LabelFor(key), key.Content), nil
}

func EncodePem(label string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: label, Bytes: der}))
}

// FromPem decodes the first PEM block in text. The label decides the key
// type: anything containing PUBLIC is public, anything containing ENCRYPTED
// is encrypted and everything else is private.
func FromPem(text string) (*PemBlock, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(text)))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", keytool.ErrInvalidKey)
	}
	result := &PemBlock{
		Label:   block.Type,
		Headers: block.Headers,
		Der:     block.Bytes,
	}
	switch {
	case strings.Contains(block.Type, "PUBLIC"):
		result.Type = keytool.KeyTypePublic
	case strings.Contains(block.Type, "ENCRYPTED"):
		result.Type = keytool.KeyTypeEncrypted
	default:
		result.Type = keytool.KeyTypePrivate
	}
	return result, nil
}

// IsPem reports whether text looks like a PEM block.
func IsPem(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "-----BEGIN ")
}
