package core

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrInvalidEncryptionKey = errors.New("encryption key must be 32 bytes for AES-256")
	ErrInvalidCiphertext    = errors.New("invalid ciphertext")
)

// TokenCipher decrypts linked-account tokens stored encrypted at rest by the
// linking backend: base64 of nonce || AES-256-GCM ciphertext.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher creates a cipher from a 32-byte key.
func NewTokenCipher(encryptionKey string) (*TokenCipher, error) {
	key := []byte(encryptionKey)
	if len(key) != 32 {
		return nil, ErrInvalidEncryptionKey
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &TokenCipher{aead: gcm}, nil
}

// Decrypt returns a new Secret holding the plaintext. The encrypted secret is
// left untouched; the caller destroys it.
func (tc *TokenCipher) Decrypt(encrypted *Secret) (*Secret, error) {
	src := encrypted.Bytes()
	data := make([]byte, base64.StdEncoding.DecodedLen(len(src)))
	n, err := base64.StdEncoding.Decode(data, src)
	if err != nil {
		clear(data)
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	data = data[:n]
	defer clear(data)

	nonceSize := tc.aead.NonceSize()
	if len(data) < nonceSize+tc.aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce, cipherbytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := tc.aead.Open(nil, nonce, cipherbytes, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return NewSecret(plaintext), nil
}
