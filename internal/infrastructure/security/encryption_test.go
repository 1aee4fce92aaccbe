package security

import (
	"strings"
	"testing"
)

const hexKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestEncryptDecryptRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"hex encoded 32 byte key", hexKey},
		{"raw 16 byte key", "0123456789abcdef"},
		{"raw 24 byte key", "0123456789abcdef01234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const plaintext = "fp-3c29a1"
			sealed, err := Encrypt(plaintext, tt.key)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if sealed == plaintext || strings.Contains(sealed, plaintext) {
				t.Errorf("ciphertext %q leaks the plaintext", sealed)
			}
			opened, err := Decrypt(sealed, tt.key)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if opened != plaintext {
				t.Errorf("Decrypt() = %q, want %q", opened, plaintext)
			}
		})
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	a, err := Encrypt("same input", hexKey)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	b, err := Encrypt("same input", hexKey)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same input produced identical ciphertext")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	sealed, err := Encrypt("secret", hexKey)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if _, err := Decrypt(sealed, "0123456789abcdef"); err == nil {
		t.Error("Decrypt() with the wrong key succeeded")
	}
}

func TestEncryptRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "short", "0123456789abcdefghij"} {
		if _, err := Encrypt("data", key); err == nil {
			t.Errorf("Encrypt() with key %q succeeded, want error", key)
		}
	}
}
