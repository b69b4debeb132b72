package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealIP rewrites RemoteAddr from X-Forwarded-For or X-Real-IP, but only
// when the connecting peer is one of the Trusted proxies. The client is the
// right-most X-Forwarded-For entry that is not itself a trusted proxy, so
// addresses prepended by the client are ignored. With no trusted proxies
// the forwarding headers are never read.
type RealIP struct {
	Trusted []netip.Prefix
}

// Middleware applies the rewrite.
func (m RealIP) Middleware(next http.Handler) http.Handler {
	if len(m.Trusted) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if peer, ok := parseAddr(r.RemoteAddr); ok && m.trusted(peer) {
			if client, ok := m.forwardedClient(r.Header); ok {
				r.RemoteAddr = client.String()
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m RealIP) forwardedClient(h http.Header) (netip.Addr, bool) {
	var hops []string
	for _, value := range h.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(value, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseAddr(hops[i])
		if !ok {
			return netip.Addr{}, false
		}
		if !m.trusted(addr) {
			return addr, true
		}
	}
	if addr, ok := parseAddr(h.Get("X-Real-IP")); ok {
		return addr, true
	}
	return netip.Addr{}, false
}

func (m RealIP) trusted(addr netip.Addr) bool {
	for _, prefix := range m.Trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
