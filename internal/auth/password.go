package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of raw.
func HashPassword(raw string, cost int) (string, error) {
	if len(raw) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether raw matches hash. The comparison is constant time.
func VerifyPassword(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
