package common_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-lab/internal/common"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		xff     string
		realIP  string
		remote  string
		expects string
	}{
		{name: "forwarded first", xff: "203.0.113.9, 10.0.0.1", remote: "10.0.0.2:5000", expects: "203.0.113.9"},
		{name: "forwarded skips junk", xff: "unknown, 198.51.100.4", expects: "198.51.100.4"},
		{name: "forwarded with port", xff: "198.51.100.4:8443", expects: "198.51.100.4"},
		{name: "real ip", realIP: " 198.51.100.7 ", remote: "10.0.0.2:5000", expects: "198.51.100.7"},
		{name: "remote addr", remote: "192.0.2.1:1234", expects: "192.0.2.1"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", expects: "2001:db8::1"},
		{name: "unparseable remote", remote: "pipe", expects: "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			require.Equal(t, tc.expects, common.ClientIP(req))
		})
	}
}
