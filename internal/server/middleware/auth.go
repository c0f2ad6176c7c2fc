package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth enforces a static bearer token on every request. There are no user
// accounts in this system; the token gates the whole dashboard surface.
// An empty configured token disables the check (local use).
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			presented := extractBearer(r)
			if presented != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid token"}`, http.StatusUnauthorized)
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}
