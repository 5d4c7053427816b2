package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
)

func testCipher(t *testing.T, keyByte byte) *FieldCipher {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = keyByte
	}
	cipher, err := NewFieldCipher(config.CryptoConfig{FieldKeyBase64: base64.StdEncoding.EncodeToString(key)})
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}
	return cipher
}

func TestFieldCipherRoundTrip(t *testing.T) {
	cipher := testCipher(t, 1)

	for _, plain := range []string{"Size S", "Áo dài đỏ", ""} {
		sealed, err := cipher.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plain, err)
		}
		got, err := cipher.Decrypt(sealed)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plain {
			t.Errorf("roundtrip = %q, want %q", got, plain)
		}
	}
}

func TestFieldCipherNonDeterministic(t *testing.T) {
	cipher := testCipher(t, 1)

	a, _ := cipher.Encrypt("Size M")
	b, _ := cipher.Encrypt("Size M")
	if a == b {
		t.Fatal("equal plaintexts must not produce equal ciphertexts")
	}
}

func TestFieldCipherWrongKey(t *testing.T) {
	sealed, err := testCipher(t, 1).Encrypt("Size M")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	_, err = testCipher(t, 2).Decrypt(sealed)
	if !IsDecryptionError(err) {
		t.Fatalf("want DecryptionError, got %v", err)
	}
}

func TestFieldCipherGarbage(t *testing.T) {
	cipher := testCipher(t, 1)

	for _, bad := range []string{"not base64!!", base64.StdEncoding.EncodeToString([]byte("short"))} {
		if _, err := cipher.Decrypt(bad); !IsDecryptionError(err) {
			t.Errorf("Decrypt(%q): want DecryptionError, got %v", bad, err)
		}
	}
}

func TestNewFieldCipherRejectsBadKey(t *testing.T) {
	if _, err := NewFieldCipher(config.CryptoConfig{FieldKeyBase64: "dG9vc2hvcnQ="}); err == nil {
		t.Fatal("short key must be rejected")
	}
	if _, err := NewFieldCipher(config.CryptoConfig{FieldKeyBase64: "***"}); err == nil {
		t.Fatal("non-base64 key must be rejected")
	}
}
