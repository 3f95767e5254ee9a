package hashing

import "testing"

func TestHashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.Hash("a-reasonable-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "a-reasonable-password" {
		t.Fatal("hash equals the plaintext")
	}

	ok, err := hasher.Verify("a-reasonable-password", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("correct password did not verify")
	}

	ok, err = hasher.Verify("a-different-password", hash)
	if err != nil {
		t.Fatalf("Verify mismatch: %v", err)
	}
	if ok {
		t.Error("wrong password verified")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := NewPasswordHasher().Hash(""); err == nil {
		t.Error("expected an error for an empty password")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	if _, err := NewPasswordHasher().Verify("anything", "not-a-bcrypt-hash"); err == nil {
		t.Error("expected an error for a malformed hash")
	}
}
