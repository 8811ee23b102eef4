package middleware

import (
	"net/http"
	"strings"
)

// CaseInsensitiveMiddleware converts URL paths to lowercase.
// Asset labels encode their URL in upper case because QR alphanumeric mode
// only covers upper-case letters and packs much denser.
func CaseInsensitiveMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = strings.ToLower(r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
