package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for all new digests
const PasswordCost = 10

// HashPassword derives a salted bcrypt digest from a plaintext password.
// A fresh salt is drawn per call, so hashing the same plaintext twice
// yields different digests. Failure here (entropy exhaustion, oversized
// input) is fatal to the calling request.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword checks a plaintext password against a stored digest
// using the salt embedded in the digest. The comparison is constant
// time. Malformed digests are reported as a mismatch, never an error.
func VerifyPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
