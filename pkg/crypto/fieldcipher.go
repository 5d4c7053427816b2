package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
	"golang.org/x/crypto/chacha20poly1305"
)

// DecryptionError signals that a ciphertext could not be opened. Callers in
// read paths treat it as a per-record condition: log and skip the record.
type DecryptionError struct {
	cause error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed: %v", e.cause)
}

func (e *DecryptionError) Unwrap() error { return e.cause }

// IsDecryptionError reports whether err is a field decryption failure.
func IsDecryptionError(err error) bool {
	_, ok := err.(*DecryptionError)
	return ok
}

// Cipher is the field-level encrypt/decrypt capability consumed by the
// repositories. Ciphertexts are opaque base64 strings.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// FieldCipher encrypts short field values with ChaCha20-Poly1305 under a
// single service key. The nonce is random per value and prepended to the
// sealed bytes, so equal plaintexts produce different ciphertexts.
type FieldCipher struct {
	key []byte
}

// NewFieldCipher derives a cipher from the configured base64 key.
func NewFieldCipher(cfg config.CryptoConfig) (*FieldCipher, error) {
	key, err := base64.StdEncoding.DecodeString(cfg.FieldKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode field key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("field key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &FieldCipher{key: key}, nil
}

func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", fmt.Errorf("init aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *FieldCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", &DecryptionError{cause: err}
	}

	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", fmt.Errorf("init aead: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", &DecryptionError{cause: fmt.Errorf("ciphertext shorter than nonce")}
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &DecryptionError{cause: err}
	}
	return string(plain), nil
}
