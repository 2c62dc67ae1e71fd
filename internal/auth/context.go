package auth

import (
	"context"
	"strings"
)

// Identity is the acting user attached to a request after the guard has
// verified the token and confirmed the account still exists. Email comes
// from the account lookup, not the token.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type identityContextKey struct{}
type tokenContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &id)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil || strings.TrimSpace(v.ID) == "" {
		return Identity{}, false
	}
	return *v, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
