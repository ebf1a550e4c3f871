package utils

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
	cipherKeyLen    = 32
	cipherKeyRounds = 4096
)

// Cipher encrypts and decrypts provider API keys with AES-256-GCM. The key is
// derived once from the master secret; plaintext secrets exist only in memory
// for the duration of a gateway call.
type Cipher struct {
	key []byte
}

// NewCipher derives an AES key from the master secret and salt.
func NewCipher(masterSecret, salt string) (*Cipher, error) {
	if masterSecret == "" {
		return nil, errors.New("master secret is required")
	}
	key := pbkdf2.Key([]byte(masterSecret), []byte(salt), cipherKeyRounds, cipherKeyLen, sha256.New)
	return &Cipher{key: key}, nil
}

// Encrypt returns the base64 ciphertext and the base64 nonce used as the IV.
func (c *Cipher) Encrypt(plaintext string) (ciphertext, nonce string, err error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", fmt.Errorf("failed to build gcm: %w", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext, nonce string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return "", fmt.Errorf("failed to decode nonce: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build gcm: %w", err)
	}
	if len(iv) != gcm.NonceSize() {
		return "", errors.New("invalid nonce length")
	}

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
