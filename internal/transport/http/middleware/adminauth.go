package middleware

import (
	"net/http"
	"strings"
)

// VerifyFunc checks a presented admin password.
type VerifyFunc func(password string) bool

// AdminAuth protects operational routes. When verify is nil no password
// is configured and all requests pass (localhost-first design).
func AdminAuth(verify VerifyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verify == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Check Authorization header: "Bearer <password>"
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(auth, "Bearer ")
			if !verify(token) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
