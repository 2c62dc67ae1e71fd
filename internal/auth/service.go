package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"devlink.org/internal/gravatar"
	"devlink.org/internal/social"
)

// Service wires credential handling and token issuance to the user store.
// It holds no mutable state beyond the store reference; every request gets
// an independent code path.
type Service struct {
	users    social.UserStore
	tokenTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the issued-token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service bound to the given user store.
func NewService(users social.UserStore, opts ...ServiceOption) *Service {
	svc := &Service{
		users:    users,
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// TokenTTL reports the configured lifetime for issued tokens.
func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }

// RegisterInput carries the already validated registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register hashes the password, derives the avatar and creates the account.
// Hashing happens here and nowhere else on this path; the store receives
// only the hash. Returns ErrEmailTaken when the email is in use.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*social.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &social.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Avatar:       gravatar.URL(email),
		Joined:       s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, social.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and issues a token carrying the identity
// snapshot. Unknown email and wrong password are indistinguishable to the
// caller; neither issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	issuedAt := s.now().UTC()
	token, err := GenerateToken(user.ID, user.Name, user.Avatar, issuedAt, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		ExpiresAt: issuedAt.Add(s.tokenTTL),
	}, nil
}

// ChangePassword verifies the current password and stores a fresh hash.
// The store's UpdatePassword receives the hash explicitly, so an already
// hashed value can never be hashed a second time.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := VerifyPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// AuthenticateToken verifies the token and resolves the current account.
// Token content is trusted as issued, but account existence is re-checked
// on every request: a token for a deleted account is invalid even when the
// signature and expiry still hold.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Identity, error) {
	claims, err := ParseAndValidate(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	user, err := s.users.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, err
	}
	return Identity{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Avatar: user.Avatar,
	}, nil
}
