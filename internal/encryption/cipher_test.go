package encryption

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestNewFieldCipherKeySize(t *testing.T) {
	tests := []struct {
		name    string
		keyLen  int
		wantErr bool
	}{
		{name: "valid 32 byte key", keyLen: 32, wantErr: false},
		{name: "short key", keyLen: 16, wantErr: true},
		{name: "long key", keyLen: 64, wantErr: true},
		{name: "empty key", keyLen: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFieldCipher(bytes.Repeat([]byte{0x42}, tt.keyLen))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFieldCipher with %d byte key: err = %v, wantErr = %v", tt.keyLen, err, tt.wantErr)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cipher, err := NewFieldCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}

	plaintexts := []string{
		"",
		"123456789",
		`{"accountHolderName":"Acme Corp","routingNumber":"021000021"}`,
		"düsseldörf — 千葉県",
		string(bytes.Repeat([]byte("x"), 64*1024)),
	}

	for _, plaintext := range plaintexts {
		ciphertext, err := cipher.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", truncate(plaintext), err)
		}
		if ciphertext == plaintext && plaintext != "" {
			t.Errorf("ciphertext equals plaintext for %q", truncate(plaintext))
		}

		decrypted, err := cipher.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", truncate(decrypted), truncate(plaintext))
		}
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	cipher, err := NewFieldCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}

	first, err := cipher.Encrypt("123456789")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	second, err := cipher.Encrypt("123456789")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if first == second {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecryptRejectsCorruptInput(t *testing.T) {
	cipher, err := NewFieldCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}

	valid, err := cipher.Encrypt("sensitive")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{name: "not base64", input: "!!!not-base64!!!"},
		{name: "too short for nonce", input: "YWJj"},
		{name: "flipped ciphertext byte", input: flipLastChar(valid)},
		{name: "truncated", input: valid[:len(valid)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cipher.Decrypt(tt.input)
			if !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("Decrypt(%q): err = %v, want ErrDecryptionFailed", tt.input, err)
			}
		})
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	first, err := NewFieldCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}
	second, err := NewFieldCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}

	ciphertext, err := first.Encrypt("123456789")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := second.Decrypt(ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt with wrong key: err = %v, want ErrDecryptionFailed", err)
	}
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

func flipLastChar(s string) string {
	b := []byte(s)
	last := len(b) - 1
	if b[last] == 'A' {
		b[last] = 'B'
	} else {
		b[last] = 'A'
	}
	return string(b)
}
