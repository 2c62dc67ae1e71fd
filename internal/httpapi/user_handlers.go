package httpapi

import (
	"errors"
	"net/http"

	"devlink.org/internal/audit"
	"devlink.org/internal/auth"
	"devlink.org/internal/validate"
)

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var form validate.RegisterForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.Register(form); !res.IsValid {
		writeFieldErrors(w, res.Errors)
		return
	}
	user, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeFieldErrors(w, map[string]string{"email": "A user with that email already exists."})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not register user")
		return
	}
	audit.LogEvent(r.Context(), "user.register", map[string]any{
		"new_user_id": user.ID,
		"email":       user.Email,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var form validate.LoginForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.Login(form); !res.IsValid {
		writeFieldErrors(w, res.Errors)
		return
	}
	sess, err := a.auth.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		// One answer for unknown email and wrong password alike.
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
		return
	}
	audit.LogEvent(r.Context(), "user.login", map[string]any{"email": form.Email})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
	})
}

func (a *API) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	writeJSON(w, http.StatusOK, ident)
}
