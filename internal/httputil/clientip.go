// Package httputil holds small HTTP helpers shared by the service layer.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address a request should be attributed to, for
// logging and per-IP stream limits. With trustProxy set, forwarded headers
// win: the leftmost X-Forwarded-For entry first, then X-Real-IP. Otherwise
// the socket peer is authoritative; forwarded headers are client-controlled
// and must not influence limits on a directly exposed server.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedClient(r.Header); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, as httptest requests have.
		return r.RemoteAddr
	}
	return host
}

// forwardedClient extracts the originating client from proxy headers, or ""
// when none are present. Each proxy hop appends to X-Forwarded-For, so the
// first entry is the original client.
func forwardedClient(h http.Header) string {
	first, _, _ := strings.Cut(h.Get("X-Forwarded-For"), ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}
