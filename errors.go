package keytool

import "errors"

// Parsing
var (
	ErrInvalidKey      = errors.New("invalid key")
	ErrKeyTypeMismatch = errors.New("key type mismatch")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Recognized input the toolkit does not handle
var (
	ErrUnsupportedKeyType    = errors.New("unsupported key type")
	ErrUnsupportedCurve      = errors.New("unsupported curve")
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrUnsupportedSshKeyType = errors.New("unsupported ssh key type")
)

// Encryption
var (
	ErrAlreadyEncrypted       = errors.New("key is already encrypted")
	ErrEncryptionTypeRequired = errors.New("encryption type is required")
	ErrIncorrectPassword      = errors.New("incorrect password")
)

var ErrCommentTooLong = errors.New("comment too long")
