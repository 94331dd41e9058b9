package kdf

import (
	"fmt"

	"github.com/overnest/strongsalt-keytool-go/hashtype"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/kdf/pbkdf2"
	"github.com/overnest/strongsalt-keytool-go/kdf/pkcs12"
)

/*
** TYPES
 */

var (
	Type_Pbkdf2 = newKdfType("PBKDF2", func(h *hashtype.HashType, _ byte) KdfBase { return pbkdf2.New(h) })
	Type_Pkcs12 = newKdfType("PKCS12", func(h *hashtype.HashType, id byte) KdfBase { return pkcs12.New(h, id) })
)

type KdfType struct {
	Name  string
	build func(*hashtype.HashType, byte) KdfBase
}

var typeMap map[string]*KdfType = make(map[string]*KdfType)

func newKdfType(name string, build func(*hashtype.HashType, byte) KdfBase) *KdfType {
	kdfType := &KdfType{name, build}
	typeMap[name] = kdfType
	return kdfType
}

func TypeFromName(name string) *KdfType {
	return typeMap[name]
}

/*
** MAIN
 */

// New returns a KDF over the given hash. id selects the material for the
// PKCS12 KDF (key or IV) and is ignored by PBKDF2.
func (t *KdfType) New(hashType *hashtype.HashType, id byte) KdfBase {
	return t.build(hashType, id)
}

// KdfParams is everything needed to repeat a derivation.
type KdfParams struct {
	Type       *KdfType
	HashType   *hashtype.HashType
	Salt       []byte
	Iterations int
}

// DeriveKeyAndIV derives a cipher key and, for the PKCS12 KDF, the IV as
// well. PBKDF2 schemes carry their IV in the clear so ivLen must be 0.
func DeriveKeyAndIV(params KdfParams, password string, keyLen, ivLen int) ([]byte, []byte, error) {
	if params.Type == nil {
		return nil, nil, fmt.Errorf("KDF type cannot be nil")
	}
	key, err := params.Type.New(params.HashType, pkcs12.KeyMaterial).
		DeriveKey([]byte(password), params.Salt, params.Iterations, keyLen)
	if err != nil {
		return nil, nil, err
	}
	if ivLen == 0 {
		return key, nil, nil
	}
	if params.Type != Type_Pkcs12 {
		return nil, nil, fmt.Errorf("KDF type %v cannot derive an IV", params.Type.Name)
	}
	iv, err := params.Type.New(params.HashType, pkcs12.IvMaterial).
		DeriveKey([]byte(password), params.Salt, params.Iterations, ivLen)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}
