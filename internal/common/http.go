package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for rate limiting and logs. The first
// parseable entry of X-Forwarded-For wins, then X-Real-IP, then RemoteAddr.
// Ports are dropped so one client maps to one key.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := normaliseIP(candidate); ip != "" {
			return ip
		}
	}
	if ip := normaliseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := normaliseIP(r.RemoteAddr); ip != "" {
		return ip
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func normaliseIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	ip := net.ParseIP(strings.Trim(raw, "[]"))
	if ip == nil {
		return ""
	}
	return ip.String()
}
