package hashing

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades login latency for resistance to offline cracking.
const bcryptCost = 12

// PasswordHasher hashes and verifies admin dashboard passwords with bcrypt.
// Hashes are self-describing (salt and cost embedded), so they survive
// restarts and cost upgrades without a migration.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcryptCost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether the password matches the stored hash. A mismatch is
// not an error; only a malformed hash is.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify password: %w", err)
}
