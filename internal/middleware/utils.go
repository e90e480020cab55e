package middleware

import (
	"net"
	"net/http"
	"strings"
)

// forwardingHeaders are checked in order; the first valid address wins.
var forwardingHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// GetClientIP returns the originating client address, preferring proxy
// headers over the connection's remote address.
func GetClientIP(r *http.Request) string {
	for _, header := range forwardingHeaders {
		// X-Forwarded-For lists the client first, then each proxy
		first, _, _ := strings.Cut(r.Header.Get(header), ",")

		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
