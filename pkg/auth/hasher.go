package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost matches the work factor used for both passwords and reset tokens.
const hashCost = 12

// Hasher hashes and verifies secrets with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the default cost.
func NewHasher() *Hasher {
	return &Hasher{cost: hashCost}
}

// HashSecret returns the bcrypt hash of the given secret.
func (h *Hasher) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether the secret matches the stored hash.
func (h *Hasher) VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
