package auth

import "errors"

var (
	// ErrInvalidToken indicates the bearer token failed verification:
	// malformed, tampered, expired, or issued for an account that no
	// longer exists.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrInvalidCredentials covers both unknown email and wrong password
	// so login responses do not reveal which one failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrEmailTaken is returned on registration with an already used email.
	ErrEmailTaken = errors.New("auth: email already registered")
)
