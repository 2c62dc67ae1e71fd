// Package gravatar derives a stable avatar URL from an email address, so a
// fresh account renders with a picture before the user uploads anything.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

const baseURL = "https://www.gravatar.com/avatar/"

// URL returns the gravatar URL for the email: 200px, PG-rated, with the
// "mystery man" fallback for addresses without a gravatar account.
func URL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))

	q := url.Values{}
	q.Set("s", "200")
	q.Set("r", "pg")
	q.Set("d", "mm")
	return baseURL + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}
