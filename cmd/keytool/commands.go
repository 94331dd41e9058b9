package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	keytool "github.com/overnest/strongsalt-keytool-go"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/pbe"
	"github.com/overnest/strongsalt-keytool-go/pipeline"
)

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--in is required")
	}
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// writeOutput writes to a file, or stdout when path is empty or "-".
// Private material is written with owner-only permissions.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0600)
}

type convertFlags struct {
	in             string
	out            string
	format         string
	password       string
	encryption     string
	outputPassword string
	publicOnly     bool
	comment        string
}

func (f *convertFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in, "in", "", "input key file, - for stdin")
	cmd.Flags().StringVar(&f.out, "out", "", "output file, stdout if empty")
	cmd.Flags().StringVar(&f.format, "format", "pem", "output format: der|pem|sec1|openssh|ssh2")
	cmd.Flags().StringVar(&f.comment, "comment", "", "comment for SSH output")
	cmd.Flags().BoolVar(&f.publicOnly, "public", false, "write the public key of a private input")
}

func (f *convertFlags) request(cmd *cobra.Command) (*pipeline.Request, error) {
	input, err := readInput(cmd, f.in)
	if err != nil {
		return nil, err
	}
	format, err := pipeline.FormatFromName(f.format)
	if err != nil {
		return nil, err
	}
	encryptionType, err := pbe.EncryptionTypeFromName(f.encryption)
	if err != nil {
		return nil, err
	}
	return &pipeline.Request{
		Input:          input,
		InputPassword:  f.password,
		OutputFormat:   format,
		EncryptionType: encryptionType,
		OutputPassword: f.outputPassword,
		PublicOnly:     f.publicOnly,
		Comment:        f.comment,
	}, nil
}

func (a *app) run(cmd *cobra.Command, f *convertFlags) error {
	req, err := f.request(cmd)
	if err != nil {
		return err
	}
	res, err := a.pipeline.Run(req)
	if err != nil {
		return err
	}
	return writeOutput(cmd, f.out, res.Output)
}

func (a *app) convertCmd() *cobra.Command {
	f := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Re-encode a key, optionally decrypting and re-encrypting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, f)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.password, "password", "", "password of an encrypted input key")
	cmd.Flags().StringVar(&f.encryption, "encryption", "", "encrypt the output: PKCS|AES|PKCS5|AES-PBKDF2")
	cmd.Flags().StringVar(&f.outputPassword, "out-password", "", "password for the encrypted output")
	return cmd
}

func (a *app) encryptCmd() *cobra.Command {
	f := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a private key under a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.encryption == "" {
				return keytool.ErrEncryptionTypeRequired
			}
			return a.run(cmd, f)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.encryption, "encryption", "AES", "PKCS|AES|PKCS5|AES-PBKDF2")
	cmd.Flags().StringVar(&f.outputPassword, "password", "", "password to encrypt with")
	return cmd
}

func (a *app) decryptCmd() *cobra.Command {
	f := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt an encrypted private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.password == "" {
				return fmt.Errorf("--password is required")
			}
			return a.run(cmd, f)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.password, "password", "", "password of the encrypted key")
	return cmd
}

func (a *app) createCmd() *cobra.Command {
	var (
		cipherName, curve, format, encryption, password, comment, privateOut, publicOut string
		keySize                                                                      int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			cipher := keytool.CipherTypeFromName(cipherName)
			if cipher == nil || cipher.Encrypted {
				return fmt.Errorf("%w: there is no key cipher named %q", keytool.ErrUnsupportedKeyType, cipherName)
			}
			outFormat, err := pipeline.FormatFromName(format)
			if err != nil {
				return err
			}
			encryptionType, err := pbe.EncryptionTypeFromName(encryption)
			if err != nil {
				return err
			}
			private, public, err := a.pipeline.Create(cipher, KeyPairParams{KeySize: keySize, Curve: curve},
				outFormat, encryptionType, password, comment)
			if err != nil {
				return err
			}
			if err = writeOutput(cmd, privateOut, private); err != nil {
				return err
			}
			return writeOutput(cmd, publicOut, public)
		},
	}
	cmd.Flags().StringVar(&cipherName, "cipher", "RSA", "RSA|DSA|EC|ELGAMAL")
	cmd.Flags().IntVar(&keySize, "size", 0, "key size in bits (RSA, DSA, ElGamal)")
	cmd.Flags().StringVar(&curve, "curve", "", "curve name (EC)")
	cmd.Flags().StringVar(&format, "format", "pem", "der|pem|sec1|openssh|ssh2")
	cmd.Flags().StringVar(&encryption, "encryption", "", "encrypt the private key: PKCS|AES|PKCS5|AES-PBKDF2")
	cmd.Flags().StringVar(&password, "password", "", "password for the encrypted private key")
	cmd.Flags().StringVar(&comment, "comment", "", "comment for SSH output")
	cmd.Flags().StringVar(&privateOut, "private-out", "", "private key file, stdout if empty")
	cmd.Flags().StringVar(&publicOut, "public-out", "", "public key file, stdout if empty")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	var privateIn, publicIn, password string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a private and a public key form a pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			private, err := readInput(cmd, privateIn)
			if err != nil {
				return err
			}
			public, err := readInput(cmd, publicIn)
			if err != nil {
				return err
			}
			ok, err := a.pipeline.Verify(private, public, password)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("keys do not form a pair")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&privateIn, "private", "", "private key file")
	cmd.Flags().StringVar(&publicIn, "public", "", "public key file")
	cmd.Flags().StringVar(&password, "password", "", "password of an encrypted private key")
	return cmd
}

func (a *app) fingerprintCmd() *cobra.Command {
	var in, password string
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the SSH SHA256 fingerprint of a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			fp, err := a.pipeline.Fingerprint(input, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "key file, - for stdin")
	cmd.Flags().StringVar(&password, "password", "", "password of an encrypted private key")
	return cmd
}

func (a *app) signCmd() *cobra.Command {
	var keyIn, in, out, password string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a file with a private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := os.ReadFile(keyIn)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			sig, err := a.pipeline.Sign(key, password, data)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, sig)
		},
	}
	cmd.Flags().StringVar(&keyIn, "key", "", "private key file")
	cmd.Flags().StringVar(&in, "in", "", "file to sign, - for stdin")
	cmd.Flags().StringVar(&out, "out", "", "signature file, stdout if empty")
	cmd.Flags().StringVar(&password, "password", "", "password of an encrypted private key")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func (a *app) verifySignatureCmd() *cobra.Command {
	var keyIn, in, sigIn, password string
	cmd := &cobra.Command{
		Use:   "verify-signature",
		Short: "Check a signature with either half of the key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := os.ReadFile(keyIn)
			if err != nil {
				return err
			}
			sig, err := os.ReadFile(sigIn)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			ok, err := a.pipeline.VerifySignature(key, password, data, sig)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("signature does not match")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&keyIn, "key", "", "private or public key file")
	cmd.Flags().StringVar(&in, "in", "", "signed file, - for stdin")
	cmd.Flags().StringVar(&sigIn, "signature", "", "signature file")
	cmd.Flags().StringVar(&password, "password", "", "password of an encrypted private key")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}
