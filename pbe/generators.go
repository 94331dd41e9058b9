package pbe

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/hashtype"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/kdf"
	"github.com/overnest/strongsalt-keytool-go/oid"
	"github.com/overnest/strongsalt-keytool-go/pkcs8"
	"github.com/overnest/strongsalt-keytool-go/utils"
)

// pkcs-12PbeParams
type pbeParams struct {
	Salt       []byte
	Iterations int
}

// PBKDF2-params. KeyLength is never written.
type pbkdf2Params struct {
	Salt           []byte
	IterationCount int
	KeyLength      int                      `asn1:"optional"`
	Prf            pkix.AlgorithmIdentifier `asn1:"optional"`
}

/*
** GENERATORS
 */

var (
	pkcs12TripleDes = &pkcs12Generator{oid.PbeWithShaAnd3KeyTripleDesCbc, hashtype.TypeSha1, tripleDes, true}
	pkcs12Aes256    = &pkcs12Generator{oid.BcPbeSha256Pkcs12Aes256Cbc, hashtype.TypeSha256, aes256, false}
)

var (
	// PBES2, PBKDF2-HMAC-SHA1, DES-EDE3-CBC
	Pkcs5Generator EncryptionGenerator = &pbes2Generator{hashtype.TypeSha1, oid.DesEde3Cbc, tripleDes}

	// PBES2, PBKDF2-HMAC-SHA256, AES-256-CBC
	AesGenerator EncryptionGenerator = &pbes2Generator{hashtype.TypeSha256, oid.Aes256Cbc, aes256}

	// pbeWithSHAAnd3-KeyTripleDES-CBC, only over a PrivateKeyInfo
	Pkcs12Generator EncryptionGenerator = pkcs12TripleDes

	// bc_pbe_sha256_pkcs12_aes256_cbc
	Pkcs12AesGenerator EncryptionGenerator = pkcs12Aes256
)

type pkcs12Generator struct {
	id             asn1.ObjectIdentifier
	hashType       *hashtype.HashType
	cipher         *blockCipher
	requireKeyInfo bool
}

func checkArgs(salt []byte, iterations int, plaintext []byte) error {
	if len(salt) == 0 {
		return fmt.Errorf("%w: salt cannot be empty", keytool.ErrInvalidArgument)
	}
	if iterations < 1 {
		return fmt.Errorf("%w: iteration count must be positive", keytool.ErrInvalidArgument)
	}
	if len(plaintext) == 0 {
		return fmt.Errorf("%w: nothing to encrypt", keytool.ErrInvalidArgument)
	}
	return nil
}

func (g *pkcs12Generator) Encrypt(password string, salt []byte, iterations int, plaintext []byte) ([]byte, error) {
	if err := checkArgs(salt, iterations, plaintext); err != nil {
		return nil, err
	}
	if g.requireKeyInfo {
		if _, err := pkcs8.ParsePrivateKeyInfo(plaintext); err != nil {
			return nil, err
		}
	}
	key, iv, err := g.deriveKeyAndIV(password, salt, iterations)
	if err != nil {
		return nil, err
	}
	ciphertext, err := g.cipher.encrypt(key, iv, plaintext)
	if err != nil {
		return nil, err
	}
	alg, err := pkcs8.AlgorithmWithParams(g.id, pbeParams{salt, iterations})
	if err != nil {
		return nil, err
	}
	return pkcs8.MarshalEncryptedPrivateKeyInfo(alg, ciphertext)
}

func (g *pkcs12Generator) deriveKeyAndIV(password string, salt []byte, iterations int) ([]byte, []byte, error) {
	params := kdf.KdfParams{
		Type:       kdf.Type_Pkcs12,
		HashType:   g.hashType,
		Salt:       salt,
		Iterations: iterations,
	}
	return kdf.DeriveKeyAndIV(params, password, g.cipher.keyLen, g.cipher.blockSize)
}

func (g *pkcs12Generator) decrypt(password string, alg pkix.AlgorithmIdentifier, ciphertext []byte) ([]byte, error) {
	params := pbeParams{}
	if _, err := asn1.Unmarshal(alg.Parameters.FullBytes, &params); err != nil {
		return nil, fmt.Errorf("%w: PBE parameters: %v", keytool.ErrInvalidKey, err)
	}
	if params.Iterations < 1 {
		return nil, fmt.Errorf("%w: PBE iteration count must be positive", keytool.ErrInvalidKey)
	}
	key, iv, err := g.deriveKeyAndIV(password, params.Salt, params.Iterations)
	if err != nil {
		return nil, err
	}
	return g.cipher.decrypt(key, iv, ciphertext)
}

type pbes2Generator struct {
	hashType *hashtype.HashType
	schemeID asn1.ObjectIdentifier
	cipher   *blockCipher
}

func (g *pbes2Generator) Encrypt(password string, salt []byte, iterations int, plaintext []byte) ([]byte, error) {
	if err := checkArgs(salt, iterations, plaintext); err != nil {
		return nil, err
	}
	iv, err := utils.RandomBytes(g.cipher.blockSize)
	if err != nil {
		return nil, err
	}
	key, _, err := kdf.DeriveKeyAndIV(kdf.KdfParams{
		Type:       kdf.Type_Pbkdf2,
		HashType:   g.hashType,
		Salt:       salt,
		Iterations: iterations,
	}, password, g.cipher.keyLen, 0)
	if err != nil {
		return nil, err
	}
	ciphertext, err := g.cipher.encrypt(key, iv, plaintext)
	if err != nil {
		return nil, err
	}

	kdfParams := pbkdf2Params{Salt: salt, IterationCount: iterations}
	if g.hashType != hashtype.TypeSha1 {
		kdfParams.Prf = pkix.AlgorithmIdentifier{Algorithm: g.hashType.HmacOID, Parameters: asn1.NullRawValue}
	}
	kdfAlg, err := pkcs8.AlgorithmWithParams(oid.Pbkdf2, kdfParams)
	if err != nil {
		return nil, err
	}
	schemeAlg, err := pkcs8.AlgorithmWithParams(g.schemeID, iv)
	if err != nil {
		return nil, err
	}
	alg, err := pkcs8.AlgorithmWithParams(oid.Pbes2, oid.Pbes2Params{
		KeyDerivationFunc: kdfAlg,
		EncryptionScheme:  schemeAlg,
	})
	if err != nil {
		return nil, err
	}
	return pkcs8.MarshalEncryptedPrivateKeyInfo(alg, ciphertext)
}

// decryptPbes2 accepts any PBKDF2 PRF the hash registry knows, paired with
// either of the two supported encryption schemes.
func decryptPbes2(password string, alg pkix.AlgorithmIdentifier, ciphertext []byte) ([]byte, error) {
	params := oid.Pbes2Params{}
	if _, err := asn1.Unmarshal(alg.Parameters.FullBytes, &params); err != nil {
		return nil, fmt.Errorf("%w: PBES2 parameters: %v", keytool.ErrInvalidKey, err)
	}
	if !params.KeyDerivationFunc.Algorithm.Equal(oid.Pbkdf2) {
		return nil, fmt.Errorf("%w: PBES2 key derivation %v", keytool.ErrUnsupportedKeyType, params.KeyDerivationFunc.Algorithm)
	}
	kdfParams := pbkdf2Params{}
	if _, err := asn1.Unmarshal(params.KeyDerivationFunc.Parameters.FullBytes, &kdfParams); err != nil {
		return nil, fmt.Errorf("%w: PBKDF2 parameters: %v", keytool.ErrInvalidKey, err)
	}
	if kdfParams.IterationCount < 1 {
		return nil, fmt.Errorf("%w: PBKDF2 iteration count must be positive", keytool.ErrInvalidKey)
	}
	hashType, err := hashtype.FromHmacOID(kdfParams.Prf.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keytool.ErrUnsupportedKeyType, err)
	}

	var scheme *blockCipher
	switch {
	case params.EncryptionScheme.Algorithm.Equal(oid.DesEde3Cbc):
		scheme = tripleDes
	case params.EncryptionScheme.Algorithm.Equal(oid.Aes256Cbc):
		scheme = aes256
	default:
		return nil, fmt.Errorf("%w: PBES2 encryption scheme %v", keytool.ErrUnsupportedKeyType, params.EncryptionScheme.Algorithm)
	}
	if kdfParams.KeyLength != 0 && kdfParams.KeyLength != scheme.keyLen {
		return nil, fmt.Errorf("%w: PBKDF2 key length %d does not fit %v", keytool.ErrInvalidKey, kdfParams.KeyLength, scheme.name)
	}
	var iv []byte
	if _, err := asn1.Unmarshal(params.EncryptionScheme.Parameters.FullBytes, &iv); err != nil {
		return nil, fmt.Errorf("%w: PBES2 IV: %v", keytool.ErrInvalidKey, err)
	}

	key, _, err := kdf.DeriveKeyAndIV(kdf.KdfParams{
		Type:       kdf.Type_Pbkdf2,
		HashType:   hashType,
		Salt:       kdfParams.Salt,
		Iterations: kdfParams.IterationCount,
	}, password, scheme.keyLen, 0)
	if err != nil {
		return nil, err
	}
	return scheme.decrypt(key, iv, ciphertext)
}
