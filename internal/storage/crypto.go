package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	cipherSaltLen    = 16
	cipherKeyLen     = 32
	cipherIterations = 4096
)

var errCipherText = errors.New("malformed encrypted value")

// tokenCipher encrypts the bearer token at rest with AES-GCM. The key
// is derived per value from the configured secret and a random salt,
// so the same token never encrypts to the same bytes twice.
type tokenCipher struct {
	secret []byte
}

func newTokenCipher(secret string) *tokenCipher {
	return &tokenCipher{secret: []byte(secret)}
}

func (c *tokenCipher) seal(plain string) (string, error) {
	salt := make([]byte, cipherSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := append(salt, nonce...)
	out = gcm.Seal(out, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (c *tokenCipher) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errCipherText
	}

	if len(raw) < cipherSaltLen {
		return "", errCipherText
	}
	salt, rest := raw[:cipherSaltLen], raw[cipherSaltLen:]

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", errCipherText
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errCipherText
	}
	return string(plain), nil
}

func (c *tokenCipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, cipherIterations, cipherKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
