package auth

import (
	"net/http"
	"strings"
)

// TokenFromRequest returns the session token of r, read from the named cookie
// first and then from an Authorization bearer header. An empty cookie name
// only accepts the header.
func TokenFromRequest(r *http.Request, cookie string) string {
	if cookie != "" {
		if c, err := r.Cookie(cookie); err == nil {
			return c.Value
		}
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
