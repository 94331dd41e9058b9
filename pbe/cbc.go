package pbe

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"errors"
	"fmt"
)

type blockCipher struct {
	name      string
	keyLen    int
	blockSize int
	newFn     func(key []byte) (cipher.Block, error)
}

var (
	tripleDes = &blockCipher{"DES-EDE3-CBC", 24, des.BlockSize, des.NewTripleDESCipher}
	aes256    = &blockCipher{"AES-256-CBC", 32, aes.BlockSize, aes.NewCipher}
)

var errPadding = errors.New("bad padding")

func (c *blockCipher) encrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := c.newFn(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("%v IV must be %d bytes, got %d", c.name, block.BlockSize(), len(iv))
	}
	padded := pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func (c *blockCipher) decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := c.newFn(key)
	if err != nil {
		return nil, err
	}
	blockSize := block.BlockSize()
	if len(iv) != blockSize {
		return nil, fmt.Errorf("%v IV must be %d bytes, got %d", c.name, blockSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("%v ciphertext is not a whole number of blocks", c.name)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return unpad(plaintext, blockSize)
}

// PKCS#7
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errPadding
		}
	}
	return data[:len(data)-n], nil
}
