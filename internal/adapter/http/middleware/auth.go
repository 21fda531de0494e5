package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BearerAuth guards the API with a static token checked against a bcrypt
// hash, so the plaintext token never lives in configuration. An empty hash
// disables authentication (single-user local deployments).
func BearerAuth(tokenHash string, next http.Handler) http.Handler {
	if tokenHash == "" {
		return next
	}

	hash := []byte(tokenHash)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}
