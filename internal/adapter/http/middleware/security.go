package middleware

import "net/http"

// SecurityHeaders adds security-related HTTP headers to all responses.
// The API serves JSON and SSE only, so the CSP can deny everything.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// HTTP Strict Transport Security (only when behind TLS)
		if isTLS(r) {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// isTLS checks both the TLS connection state and the X-Forwarded-Proto
// header (for requests behind a reverse proxy).
func isTLS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
