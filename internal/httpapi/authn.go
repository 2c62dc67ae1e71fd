package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"devlink.org/internal/auth"
)

// publicExact are routes that never require a token.
var publicExact = map[string]bool{
	"/":                   true,
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/api/info":           true,
	"/api/users/register": true,
	"/api/users/login":    true,
	"/api/profile/all":    true,
	"/api/posts/stream":   true,
}

// publicPrefixes are read-only lookup routes open to anyone.
var publicPrefixes = []string{
	"/api/profile/handle/",
	"/api/profile/user/",
}

func isPublicRequest(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	p := r.URL.Path
	if publicExact[p] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	// Reading posts is public; mutating them is not.
	if r.Method == http.MethodGet && (p == "/api/posts" || strings.HasPrefix(p, "/api/posts/")) {
		return true
	}
	return false
}

// withAuth verifies the bearer token and re-checks that the account still
// exists, so a token outlives neither its expiry nor its owner.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}
		ident, err := a.auth.AuthenticateToken(r.Context(), token)
		if err != nil {
			// A store fault is not the client's fault; only a bad token
			// ends the session.
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "could not authenticate request")
			return
		}
		ctx := auth.ContextWithIdentity(r.Context(), ident)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
