package middleware

import (
	"net/http"
)

// apiCSP is strict: the API serves JSON and plain text only.
const apiCSP = "default-src 'none'; frame-ancestors 'self'"

// SecurityHeaders adds the response headers every board endpoint carries.
// hsts: if true, adds Strict-Transport-Security (enable only behind https)
func SecurityHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()

			// Only our own pages may frame the board
			headers.Set("X-Frame-Options", "SAMEORIGIN")
			headers.Set("X-DNS-Prefetch-Control", "off")
			headers.Set("Referrer-Policy", "same-origin")
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")
			headers.Set("Content-Security-Policy", apiCSP)

			if hsts {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
