package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"devlink.org/internal/social"
)

func newTestService(t *testing.T) (*Service, social.UserStore) {
	t.Helper()
	setTestSecret(t, "service-test-secret")
	store := social.NewInMemory()
	return NewService(store.Users()), store.Users()
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Alice Smith",
		Email:    "A@X.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated user id")
	}
	if user.Email != "a@x.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.PasswordHash == "secret1" || user.PasswordHash == "" {
		t.Fatal("password was not hashed")
	}
	if !strings.Contains(user.Avatar, "gravatar.com/avatar/") {
		t.Fatalf("avatar not derived: %s", user.Avatar)
	}

	sess, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("empty token issued")
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiry not in the future: %v", sess.ExpiresAt)
	}

	claims, err := ParseAndValidate(sess.Token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != user.ID || claims.Name != "Alice Smith" {
		t.Fatalf("claim snapshot mismatch: %+v", claims)
	}

	stored, err := users.Find(ctx, user.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if stored.PasswordHash != user.PasswordHash {
		t.Fatal("stored hash differs from returned hash")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "a@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Name: "Other", Email: "A@x.com", Password: "secret2"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "a@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sess, err := svc.Login(ctx, "a@x.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sess.Token != "" {
		t.Fatal("token issued despite failed login")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "nobody@x.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateToken(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	identity, err := svc.AuthenticateToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("AuthenticateToken: %v", err)
	}
	if identity.ID != user.ID || identity.Email != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	// A token for a deleted account must stop working even though its
	// signature and expiry are still valid.
	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.AuthenticateToken(ctx, sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after account deletion, got %v", err)
	}
}

func TestChangePasswordRehashGuard(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "next-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "secret1", "next-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	stored, err := users.Find(ctx, user.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	// The stored value is a single bcrypt hash of the new password, not a
	// hash of a hash.
	if err := VerifyPassword(stored.PasswordHash, "next-password"); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}
	if err := VerifyPassword(stored.PasswordHash, "secret1"); err == nil {
		t.Fatal("old password still verifies")
	}

	if _, err := svc.Login(ctx, "a@x.com", "next-password"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func TestContextIdentityRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("identity found in empty context")
	}

	want := Identity{ID: "user-1", Name: "Alice", Email: "a@x.com"}
	ctx = ContextWithIdentity(ctx, want)
	got, ok := IdentityFromContext(ctx)
	if !ok || got != want {
		t.Fatalf("identity round trip failed: %+v, ok=%v", got, ok)
	}

	ctx = ContextWithToken(ctx, "raw-token")
	token, ok := TokenFromContext(ctx)
	if !ok || token != "raw-token" {
		t.Fatalf("token round trip failed: %q, ok=%v", token, ok)
	}
}

func TestLoginExpiryMatchesTokenClaim(t *testing.T) {
	setTestSecret(t, "service-test-secret")
	store := social.NewInMemory()
	// Pinned, but close to the wall clock: validation checks iat/exp
	// against real time.
	fixed := time.Now().UTC().Truncate(time.Second)
	svc := NewService(store.Users(), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "a@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := ParseAndValidate(sess.Token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if !claims.IssuedAt.Time.Equal(fixed) {
		t.Fatalf("iat = %v, want clock time %v", claims.IssuedAt.Time, fixed)
	}
	if !claims.ExpiresAt.Time.Equal(sess.ExpiresAt) {
		t.Fatalf("token exp %v != session expiry %v", claims.ExpiresAt.Time, sess.ExpiresAt)
	}
}
