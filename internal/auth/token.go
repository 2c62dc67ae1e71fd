package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer            = "devlink"
	secretEnvVariable = "DEVLINK_AUTH_SECRET"

	// DefaultTokenTTL is the fixed session length. No refresh, no
	// revocation: validity is signature plus expiry alone.
	DefaultTokenTTL = time.Hour
)

var (
	errMissingSecret = errors.New("auth secret is not configured")

	secretMu sync.Mutex
	secret   cachedSecret
)

type cachedSecret struct {
	value []byte
	err   error
	ready bool
}

// Claims is the token payload: the minimal identity snapshot taken at
// issuance. Name and avatar may go stale relative to the account until the
// user logs in again; that is accepted, only the subject id is load-bearing.
type Claims struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 JWT embedding the identity claim snapshot.
// issuedAt stamps iat, so the caller's clock decides both the claim and the
// expiry it reports alongside the token; a zero value means now.
func GenerateToken(userID, name, avatar string, issuedAt time.Time, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("userID is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be greater than zero")
	}
	secretBytes, err := loadSecret()
	if err != nil {
		return "", err
	}

	now := issuedAt.UTC()
	if issuedAt.IsZero() {
		now = time.Now().UTC()
	}
	claims := Claims{
		Name:   name,
		Avatar: avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secretBytes)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate verifies signature and claims. Fails closed: any
// structural corruption, signature mismatch or elapsed expiry yields
// ErrInvalidToken, never a partial claim set.
func ParseAndValidate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	secretBytes, err := loadSecret()
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secretBytes, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func validateClaims(claims *Claims) error {
	if claims.Issuer != issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := time.Now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}

// loadSecret reads the signing secret from the environment once and caches
// it for the process lifetime. Rotation requires a restart.
func loadSecret() ([]byte, error) {
	secretMu.Lock()
	defer secretMu.Unlock()
	if secret.ready {
		return secret.value, secret.err
	}
	raw := strings.TrimSpace(os.Getenv(secretEnvVariable))
	if raw == "" {
		secret.err = errMissingSecret
		secret.ready = true
		return nil, secret.err
	}
	secret.value = []byte(raw)
	secret.err = nil
	secret.ready = true
	return secret.value, nil
}

// ResetSecretForTests clears the cached secret value. Only intended for test use.
func ResetSecretForTests() {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = cachedSecret{}
}
