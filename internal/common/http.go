package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's IP from RemoteAddr. security.RealIP runs
// first and rewrites RemoteAddr for requests from trusted proxies, so
// forwarding headers are not consulted again here.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return addr
}
