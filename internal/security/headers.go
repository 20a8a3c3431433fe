package security

import (
	"net/http"
	"strconv"
)

// Headers sets response headers for a JSON-only API. Priced documents are
// never cached by intermediaries.
type Headers struct {
	HSTS       bool
	HSTSMaxAge int
}

// Middleware attaches the headers before the handler runs.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Cache-Control", "no-store")
		if h.HSTS && r.TLS != nil {
			maxAge := h.HSTSMaxAge
			if maxAge <= 0 {
				maxAge = 31536000
			}
			headers.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(maxAge))
		}
		next.ServeHTTP(w, r)
	})
}
