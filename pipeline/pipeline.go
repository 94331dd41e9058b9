// Package pipeline runs the read, decrypt, convert, encrypt and write steps
// that turn one encoded key into another.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/config"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/pbe"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
	"github.com/overnest/strongsalt-keytool-go/provider"
	"github.com/overnest/strongsalt-keytool-go/sec1"
	"github.com/overnest/strongsalt-keytool-go/signing"
	"github.com/overnest/strongsalt-keytool-go/sshkey"
)

// Request describes one conversion. InputPassword opens an encrypted input
// key; OutputPassword and EncryptionType protect the output key.
type Request struct {
	Input          []byte
	InputPassword  string
	OutputFormat   *Format
	EncryptionType *pbe.EncryptionType
	OutputPassword string
	PublicOnly     bool
	Comment        string
}

type Result struct {
	Key    *keytool.AsymmetricKey
	Output []byte
}

type Pipeline struct {
	keys       *provider.AsymmetricKeyProvider
	encryption *pbe.EncryptionProvider
	log        *zap.Logger
}

func New(cfg *config.Config) *Pipeline {
	keys := provider.New()
	return &Pipeline{
		keys:       keys,
		encryption: pbe.NewEncryptionProvider(cfg.Encryption, keys),
		log:        logger.Named("pipeline"),
	}
}

func (p *Pipeline) Keys() *provider.AsymmetricKeyProvider {
	return p.keys
}

/*
** STEPS
 */

type state struct {
	req *Request
	key *keytool.AsymmetricKey
	// private is kept when the public key is derived, since SSH writes
	// curve25519 public keys from the private scalar
	private *keytool.AsymmetricKey
	output  []byte
}

type step struct {
	name string
	run  func(p *Pipeline, s *state) error
}

var steps = []step{
	{"read", readStep},
	{"decrypt", decryptStep},
	{"convert", convertStep},
	{"encrypt", encryptStep},
	{"write", writeStep},
}

// Validate reports every problem with the request at once.
func (r *Request) Validate() error {
	var err error
	if len(bytes.TrimSpace(r.Input)) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: input key is empty", keytool.ErrInvalidArgument))
	}
	if r.OutputFormat == nil {
		err = multierr.Append(err, fmt.Errorf("%w: output format is required", keytool.ErrInvalidArgument))
	}
	if r.encrypting() {
		if r.OutputFormat != nil && !r.OutputFormat.CanEncrypt() {
			err = multierr.Append(err, fmt.Errorf("%w: encrypted keys cannot be written as %v",
				keytool.ErrUnsupportedFormat, r.OutputFormat))
		}
		if r.OutputPassword == "" {
			err = multierr.Append(err, fmt.Errorf("%w: output password is required for %v encryption",
				keytool.ErrInvalidArgument, r.EncryptionType))
		}
		if r.PublicOnly {
			err = multierr.Append(err, fmt.Errorf("%w: public keys cannot be encrypted", keytool.ErrInvalidArgument))
		}
	}
	if r.Comment != "" && (r.OutputFormat == nil || !r.OutputFormat.Ssh) {
		err = multierr.Append(err, fmt.Errorf("%w: comments are only written to SSH formats", keytool.ErrInvalidArgument))
	}
	return err
}

func (r *Request) encrypting() bool {
	return r.EncryptionType != nil && r.EncryptionType != pbe.EncryptionTypeNone
}

// Run validates the request and applies each step in order, stopping at the
// first failure.
func (p *Pipeline) Run(req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", keytool.ErrInvalidArgument)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s := &state{req: req}
	for _, st := range steps {
		if err := st.run(p, s); err != nil {
			p.log.Debug("step failed", zap.String("step", st.name), zap.Error(err))
			return nil, err
		}
	}
	p.log.Info("converted key", zap.Stringer("key", s.key), zap.Stringer("format", req.OutputFormat))
	return &Result{Key: s.key, Output: s.output}, nil
}

func readStep(p *Pipeline, s *state) error {
	key, err := p.ReadKey(s.req.Input)
	if err != nil {
		return err
	}
	if key.IsEncrypted() && s.req.InputPassword != "" {
		key = key.WithPassword(s.req.InputPassword)
	}
	s.key = key
	return nil
}

// decryptStep leaves an encrypted key alone only when it is written back
// unchanged as DER or PEM.
func decryptStep(p *Pipeline, s *state) error {
	if !s.key.IsEncrypted() {
		return nil
	}
	passThrough := s.req.OutputFormat.CanEncrypt() && !s.req.encrypting() && !s.req.PublicOnly
	if passThrough && s.key.Password == "" {
		return nil
	}
	key, err := p.encryption.DecryptPrivateKey(s.key, "")
	if err != nil {
		return err
	}
	s.key = key
	return nil
}

func convertStep(p *Pipeline, s *state) error {
	if s.key.IsEncrypted() {
		return nil
	}
	if s.req.PublicOnly && s.key.IsPrivateKey() {
		public, err := p.keys.GetPublicKeyFromPrivate(s.key)
		if err != nil {
			return err
		}
		s.private, s.key = s.key, public
	}

	switch s.req.OutputFormat {
	case FormatSec1:
		if s.key.Cipher != keytool.Cipher_EC || !s.key.IsPrivateKey() {
			return fmt.Errorf("%w: SEC1 output needs an EC private key, got %v", keytool.ErrUnsupportedFormat, s.key)
		}
	case FormatSsh2:
		if s.key.IsPrivateKey() {
			return fmt.Errorf("%w: SSH2 output is public only, use the public key option", keytool.ErrUnsupportedFormat)
		}
	case FormatOpenSsh:
		if s.key.IsPrivateKey() && !s.key.IsCurve25519() {
			return fmt.Errorf("%w: OpenSSH private keys are only written for %v, use the public key option",
				keytool.ErrUnsupportedFormat, keytool.Curve25519Name)
		}
	}
	return nil
}

func encryptStep(p *Pipeline, s *state) error {
	if !s.req.encrypting() {
		return nil
	}
	key, err := p.encryption.EncryptPrivateKey(s.key, s.req.OutputPassword, s.req.EncryptionType)
	if err != nil {
		return err
	}
	s.key = key
	return nil
}

func writeStep(p *Pipeline, s *state) error {
	var (
		out []byte
		err error
	)
	if s.private != nil && s.req.OutputFormat.Ssh {
		out, err = WritePublicKey(s.private, s.req.OutputFormat, s.req.Comment)
	} else {
		out, err = WriteKey(s.key, s.req.OutputFormat, s.req.Comment)
	}
	if err != nil {
		return err
	}
	s.output = out
	return nil
}

/*
** READING AND WRITING
 */

// ReadKey detects the encoding of input: an SSH public key, an OpenSSH
// private key, PEM, or else raw DER.
func (p *Pipeline) ReadKey(input []byte) (*keytool.AsymmetricKey, error) {
	text := strings.TrimSpace(string(input))
	switch {
	case sshkey.IsSshKey(text):
		return sshkey.GetKeyFromSsh(text)
	case strings.HasPrefix(text, sshkey.OpenSshPrivateBegin):
		return sshkey.GetKeyFromOpenSshPrivateKey(text)
	case pkcs8.IsPem(text):
		return p.keys.GetKeyFromPem(text)
	}
	key, err := p.keys.GetKeyFromDer(input)
	if err != nil && errors.Is(err, keytool.ErrInvalidKey) {
		// bare base64 SSH blobs are the last resort
		if sshKey, sshErr := sshkey.GetKeyFromSsh(text); sshErr == nil {
			return sshKey, nil
		}
	}
	return key, err
}

// WriteKey encodes key in format. Text formats end with a newline.
func WriteKey(key *keytool.AsymmetricKey, format *Format, comment string) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: key cannot be nil", keytool.ErrInvalidArgument)
	}
	var (
		text string
		err  error
	)
	switch format {
	case FormatDer:
		return append([]byte(nil), key.Content...), nil
	case FormatPem:
		text, err = pkcs8.ToPem(key)
	case FormatSec1:
		text, err = sec1.ToPem(key)
	case FormatOpenSsh:
		if key.IsPrivateKey() {
			text, err = sshkey.GetOpenSshPrivateKey(key, comment)
		} else {
			text, err = sshkey.GetOpenSshPublicKey(key, comment)
			text += "\n"
		}
	case FormatSsh2:
		text, err = sshkey.GetSsh2PublicKey(key, comment)
	default:
		return nil, fmt.Errorf("%w: %v", keytool.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// WritePublicKey writes the public half of key in an SSH format. key may be
// private; curve25519 keys must be.
func WritePublicKey(key *keytool.AsymmetricKey, format *Format, comment string) ([]byte, error) {
	switch format {
	case FormatOpenSsh:
		text, err := sshkey.GetOpenSshPublicKey(key, comment)
		if err != nil {
			return nil, err
		}
		return []byte(text + "\n"), nil
	case FormatSsh2:
		text, err := sshkey.GetSsh2PublicKey(key, comment)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}
	return nil, fmt.Errorf("%w: %v is not an SSH public key format", keytool.ErrUnsupportedFormat, format)
}

/*
** OTHER OPERATIONS
 */

// Create generates a key pair and writes both halves in format. The
// private half is encrypted when encryptionType asks for it.
func (p *Pipeline) Create(cipher *keytool.CipherType, params KeyPairParams, format *Format,
	encryptionType *pbe.EncryptionType, password, comment string) (private, public []byte, err error) {
	pair, err := p.keys.CreateKeyPair(cipher, params)
	if err != nil {
		return nil, nil, err
	}
	privateKey := pair.Private
	if encryptionType != nil && encryptionType != pbe.EncryptionTypeNone {
		if !format.CanEncrypt() {
			return nil, nil, fmt.Errorf("%w: encrypted keys cannot be written as %v", keytool.ErrUnsupportedFormat, format)
		}
		if privateKey, err = p.encryption.EncryptPrivateKey(pair.Private, password, encryptionType); err != nil {
			return nil, nil, err
		}
	}

	privateFormat := format
	if format == FormatSsh2 || (format == FormatOpenSsh && !privateKey.IsCurve25519()) {
		privateFormat = FormatPem
	}
	if private, err = WriteKey(privateKey, privateFormat, comment); err != nil {
		return nil, nil, err
	}
	switch format {
	case FormatOpenSsh, FormatSsh2:
		public, err = WritePublicKey(pair.Private, format, comment)
	case FormatSec1:
		public, err = WriteKey(pair.Public, FormatPem, comment)
	default:
		public, err = WriteKey(pair.Public, format, comment)
	}
	if err != nil {
		return nil, nil, err
	}
	return private, public, nil
}

// Verify reads a private and a public key and checks that they form a pair.
// Encrypted private keys are opened with password. SSH public keys are
// compared in their SSH form.
func (p *Pipeline) Verify(privateInput, publicInput []byte, password string) (bool, error) {
	private, err := p.openKey(privateInput, password)
	if err != nil {
		return false, err
	}
	if text := strings.TrimSpace(string(publicInput)); sshkey.IsSshKey(text) {
		return sshkey.VerifyKeyPair(private, text)
	}
	public, err := p.ReadKey(publicInput)
	if err != nil {
		return false, err
	}
	pair, err := keytool.NewKeyPair(private, public)
	if err != nil {
		return false, err
	}
	return p.keys.VerifyKeyPair(pair), nil
}

// Fingerprint returns the SSH SHA256 fingerprint of a key. SSH public keys
// are fingerprinted as written.
func (p *Pipeline) Fingerprint(input []byte, password string) (string, error) {
	if text := strings.TrimSpace(string(input)); sshkey.IsSshKey(text) {
		return sshkey.FingerprintSsh(text)
	}
	key, err := p.openKey(input, password)
	if err != nil {
		return "", err
	}
	return sshkey.Fingerprint(key)
}

// openKey reads a key and decrypts it when it is encrypted.
func (p *Pipeline) openKey(input []byte, password string) (*keytool.AsymmetricKey, error) {
	key, err := p.ReadKey(input)
	if err != nil {
		return nil, err
	}
	if key.IsEncrypted() {
		return p.encryption.DecryptPrivateKey(key, password)
	}
	return key, nil
}

// Sign signs data with a private key in any readable format.
func (p *Pipeline) Sign(input []byte, password string, data []byte) ([]byte, error) {
	key, err := p.openKey(input, password)
	if err != nil {
		return nil, err
	}
	sig, err := signing.Sign(key, data)
	if err != nil {
		return nil, err
	}
	p.log.Debug("signed", zap.String("cipher", key.Cipher.Name), zap.Int("len", len(data)))
	return sig.Content, nil
}

// VerifySignature checks sig over data with either half of the signing pair.
func (p *Pipeline) VerifySignature(input []byte, password string, data, sig []byte) (bool, error) {
	key, err := p.openKey(input, password)
	if err != nil {
		return false, err
	}
	return signing.Verify(key, &keytool.Signature{Content: sig, SignedData: data})
}
