package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"devlink.org/internal/audit"
	"devlink.org/internal/auth"
	"devlink.org/internal/social"
	"devlink.org/internal/validate"
)

// handleProfileResource serves /api/profile: the caller's own profile.
func (a *API) handleProfileResource(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getOwnProfile(w, r)
	case http.MethodPost:
		a.upsertProfile(w, r)
	case http.MethodDelete:
		a.deleteAccount(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

// handleProfileSubtree routes everything under /api/profile/.
func (a *API) handleProfileSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/profile/")
	switch {
	case rest == "all":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listProfiles(w, r)
	case strings.HasPrefix(rest, "handle/"):
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getProfileByHandle(w, r, strings.TrimPrefix(rest, "handle/"))
	case strings.HasPrefix(rest, "user/"):
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getProfileByUser(w, r, strings.TrimPrefix(rest, "user/"))
	case rest == "experience":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addExperience(w, r)
	case strings.HasPrefix(rest, "experience/"):
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.removeExperience(w, r, strings.TrimPrefix(rest, "experience/"))
	case rest == "education":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addEducation(w, r)
	case strings.HasPrefix(rest, "education/"):
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.removeEducation(w, r, strings.TrimPrefix(rest, "education/"))
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	profile, err := a.store.Profiles().FindByUser(r.Context(), ident.ID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"noprofile": "There is no profile for this user."})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) upsertProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var form validate.ProfileForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.Profile(form); !res.IsValid {
		writeFieldErrors(w, res.Errors)
		return
	}
	profile := &social.Profile{
		UserID:   ident.ID,
		Handle:   strings.TrimSpace(form.Handle),
		Company:  form.Company,
		Website:  form.Website,
		Location: form.Location,
		Status:   form.Status,
		Skills:   form.SkillList(),
		Bio:      form.Bio,
		Github:   form.Github,
		Social: social.SocialLinks{
			Youtube:   form.Youtube,
			Twitter:   form.Twitter,
			Facebook:  form.Facebook,
			Linkedin:  form.Linkedin,
			Instagram: form.Instagram,
		},
	}
	saved, err := a.store.Profiles().Upsert(r.Context(), profile)
	if err != nil {
		if errors.Is(err, social.ErrDuplicateHandle) {
			writeFieldErrors(w, map[string]string{"handle": "That handle is already in use."})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not save profile")
		return
	}
	audit.LogEvent(r.Context(), "profile.upsert", map[string]any{"handle": saved.Handle})
	writeJSON(w, http.StatusOK, saved)
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	// Profile first; a user without a profile is fine.
	if err := a.store.Profiles().DeleteByUser(r.Context(), ident.ID); err != nil && !errors.Is(err, social.ErrNotFound) {
		writeError(w, r, http.StatusInternalServerError, "could not delete account")
		return
	}
	if err := a.store.Users().Delete(r.Context(), ident.ID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not delete account")
		return
	}
	audit.LogEvent(r.Context(), "user.delete", nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted."})
}

func (a *API) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.store.Profiles().List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list profiles")
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (a *API) getProfileByHandle(w http.ResponseWriter, r *http.Request, handle string) {
	if handle == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	profile, err := a.store.Profiles().FindByHandle(r.Context(), handle)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"noprofile": "There is no profile for this handle."})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) getProfileByUser(w http.ResponseWriter, r *http.Request, userID string) {
	if userID == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	profile, err := a.store.Profiles().FindByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"noprofile": "There is no profile for this user."})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) addExperience(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var form validate.ExperienceForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.Experience(form); !res.IsValid {
		writeFieldErrors(w, res.Errors)
		return
	}
	exp := social.Experience{
		Title:       form.Title,
		Company:     form.Company,
		Location:    form.Location,
		From:        form.From,
		To:          form.To,
		Current:     form.Current,
		Description: form.Description,
	}
	profile, err := a.store.Profiles().AddExperience(r.Context(), ident.ID, exp)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"noprofile": "There is no profile for this user."})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not add experience")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) removeExperience(w http.ResponseWriter, r *http.Request, expID string) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	profile, err := a.store.Profiles().RemoveExperience(r.Context(), ident.ID, expID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "experience entry not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not remove experience")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) addEducation(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var form validate.EducationForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.Education(form); !res.IsValid {
		writeFieldErrors(w, res.Errors)
		return
	}
	edu := social.Education{
		School:       form.School,
		Degree:       form.Degree,
		FieldOfStudy: form.FieldOfStudy,
		From:         form.From,
		To:           form.To,
		Current:      form.Current,
		Description:  form.Description,
	}
	profile, err := a.store.Profiles().AddEducation(r.Context(), ident.ID, edu)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"noprofile": "There is no profile for this user."})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not add education")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) removeEducation(w http.ResponseWriter, r *http.Request, eduID string) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	profile, err := a.store.Profiles().RemoveEducation(r.Context(), ident.ID, eduID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "education entry not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not remove education")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
