package sshkey

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"

	keytool "github.com/overnest/strongsalt-keytool-go"
)

// Writer builds an RFC 4253 section 5 key blob: a sequence of uint32
// length-prefixed fields.
type Writer struct {
	b *cryptobyte.Builder
}

func NewWriter() *Writer {
	return &Writer{b: cryptobyte.NewBuilder(nil)}
}

func (w *Writer) String(s []byte) *Writer {
	w.b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(s)
	})
	return w
}

// Mpint writes a non-negative integer in two's complement. Zero is the empty
// string and a leading zero byte is added only when the top bit is set.
func (w *Writer) Mpint(n *big.Int) *Writer {
	return w.String(mpintBytes(n))
}

func (w *Writer) Bytes() ([]byte, error) {
	return w.b.Bytes()
}

func mpintBytes(n *big.Int) []byte {
	if n == nil || n.Sign() == 0 {
		return []byte{}
	}
	b := n.Bytes()
	if b[0]&0x80 != 0 {
		return append([]byte{0}, b...)
	}
	return b
}

type Reader struct {
	s cryptobyte.String
}

func NewReader(blob []byte) *Reader {
	return &Reader{s: cryptobyte.String(blob)}
}

func (r *Reader) String() ([]byte, error) {
	var n uint32
	var field []byte
	if !r.s.ReadUint32(&n) || !r.s.ReadBytes(&field, int(n)) {
		return nil, fmt.Errorf("%w: truncated SSH key field", keytool.ErrInvalidKey)
	}
	return field, nil
}

func (r *Reader) Mpint() (*big.Int, error) {
	b, err := r.String()
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0]&0x80 != 0 {
		return nil, fmt.Errorf("%w: negative SSH integer", keytool.ErrInvalidKey)
	}
	return new(big.Int).SetBytes(b), nil
}

func (r *Reader) Empty() bool {
	return r.s.Empty()
}

// Finish fails if any bytes remain unread.
func (r *Reader) Finish() error {
	if !r.s.Empty() {
		return fmt.Errorf("%w: trailing data in SSH key blob", keytool.ErrInvalidKey)
	}
	return nil
}
