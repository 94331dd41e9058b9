// Package x25519 converts curve25519 key material between its Montgomery
// (X25519) and Edwards (Ed25519) forms.
package x25519

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/curve25519"
)

const (
	KeyLength = 32
)

// PublicFromPrivate returns the Montgomery u-coordinate of scalar·basepoint.
func PublicFromPrivate(private []byte) ([]byte, error) {
	if len(private) != KeyLength {
		return nil, fmt.Errorf("X25519 private key must be %d bytes, got %d", KeyLength, len(private))
	}
	return curve25519.X25519(private, curve25519.Basepoint)
}

// Ed25519FromPrivate derives the Ed25519 signing key whose seed is the X25519
// private scalar.
func Ed25519FromPrivate(private []byte) (ed25519.PrivateKey, error) {
	if len(private) != KeyLength {
		return nil, fmt.Errorf("X25519 private key must be %d bytes, got %d", KeyLength, len(private))
	}
	return ed25519.NewKeyFromSeed(private), nil
}

// Clamp puts a scalar into the form X25519 multiplies by: the low three
// bits and the top bit cleared, bit 254 set. private is modified in place.
func Clamp(private []byte) []byte {
	private[0] &= 248
	private[31] &= 127
	private[31] |= 64
	return private
}

// IsClamped reports whether private is already in clamped form. Scalars that
// are not differ from another scalar with the same public key.
func IsClamped(private []byte) bool {
	return len(private) == KeyLength && private[0]&7 == 0 && private[31]&0xc0 == 0x40
}

// EdwardsToMontgomery maps an Ed25519 public key to the u-coordinate of the
// birationally equivalent Montgomery point.
func EdwardsToMontgomery(a []byte) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(a)
	if err != nil {
		return nil, fmt.Errorf("invalid Ed25519 public key: %v", err)
	}
	return p.BytesMontgomery(), nil
}
