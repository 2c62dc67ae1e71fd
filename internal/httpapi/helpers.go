package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform error envelope with the request id so a
// client can quote it back when reporting a problem.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, map[string]string{
		"error":      msg,
		"request_id": RequestIDFromContext(r.Context()),
	})
}

// writeFieldErrors emits a validation failure as a flat field->message map.
func writeFieldErrors(w http.ResponseWriter, errs map[string]string) {
	writeJSON(w, http.StatusBadRequest, errs)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
