// internal/middleware/security.go
//
// Security-header middleware.
//
// Injects headers suited to a JSON API on every response:
//
//   • Strict-Transport-Security  (2 years)
//   • Content-Security-Policy    (nothing may load; responses are data)
//   • X-Frame-Options
//   • X-Content-Type-Options
//   • Referrer-Policy
//   • Cache-Control              (no-store; bodies carry user data)
//
// Notes
// -----
// • Headers are set before next.ServeHTTP; a handler that sets its own
//   value overrides the default.

package middleware

import "net/http"

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		hsts  = "max-age=63072000; includeSubDomains"
		csp   = "default-src 'none'; frame-ancestors 'none'"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
		cache = "no-store"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Strict-Transport-Security", hsts)
		hdr.Set("Content-Security-Policy", csp)
		hdr.Set("X-Frame-Options", xfo)
		hdr.Set("X-Content-Type-Options", nosn)
		hdr.Set("Referrer-Policy", refer)
		hdr.Set("Cache-Control", cache)
		next.ServeHTTP(w, r)
	})
}
