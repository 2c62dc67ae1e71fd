package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost pins the work factor; bumping it only affects newly hashed
// passwords, stored hashes keep their original cost.
const bcryptCost = 10

// HashPassword hashes a plaintext password using bcrypt with a per-call
// random salt. Call exactly once per plaintext value, at registration or
// password change; stores only ever receive the hash.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored hash.
// Comparison is constant-time inside bcrypt.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
