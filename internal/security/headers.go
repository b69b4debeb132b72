package security

import (
	"net/http"
	"strconv"
)

// Headers configures common security headers for HTTP responses.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// Middleware attaches standard security headers to each response. The API
// only serves JSON and PDF attachments, so the CSP forbids every source.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Enable {
			next.ServeHTTP(w, r)
			return
		}
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		headers.Set("Cross-Origin-Resource-Policy", "same-origin")
		if h.EnableHSTS && r.TLS != nil {
			headers.Set("Strict-Transport-Security", h.hstsValue())
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hstsValue() string {
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 31536000
	}
	value := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}
