package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// EncryptedPrefix marks values written by Cipher.Seal.
const EncryptedPrefix = "enc:"

// Cipher encrypts short text fields with AES-GCM. A nil *Cipher is valid
// and passes values through unchanged.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a cipher from key, padding or truncating it to 32 bytes.
// An empty key yields a nil cipher.
func NewCipher(key string) (*Cipher, error) {
	if key == "" {
		return nil, nil
	}
	if len(key) < 32 {
		key = key + string(make([]byte, 32-len(key)))
	}

	block, err := aes.NewCipher([]byte(key[:32]))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if c == nil {
		return "", errors.New("encryption key not initialized")
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	if c == nil {
		return "", errors.New("encryption key not initialized")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	ns := c.aead.NonceSize()
	if len(ciphertext) < ns {
		return "", errors.New("ciphertext too short")
	}

	plaintext, err := c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Seal encrypts v for storage and tags it with EncryptedPrefix. Empty
// values and a nil cipher store v as is.
func (c *Cipher) Seal(v string) (string, error) {
	if c == nil || v == "" {
		return v, nil
	}
	enc, err := c.Encrypt(v)
	if err != nil {
		return "", err
	}
	return EncryptedPrefix + enc, nil
}

// Open returns the plaintext of a stored value. Untagged values are legacy
// plaintext and are returned unchanged.
func (c *Cipher) Open(v string) (string, error) {
	if !strings.HasPrefix(v, EncryptedPrefix) {
		return v, nil
	}
	return c.Decrypt(strings.TrimPrefix(v, EncryptedPrefix))
}
