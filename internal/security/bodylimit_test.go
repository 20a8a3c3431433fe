package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimit(t *testing.T) {
	command := `{"kind":"set_discount","discountRate":5}`
	tests := []struct {
		name          string
		max           int64
		body          string
		contentLength int64
		status        int
		code          string
	}{
		{name: "command within limit", max: 64, body: command, contentLength: int64(len(command)), status: http.StatusOK},
		{name: "disabled", max: 0, body: strings.Repeat("x", 4096), contentLength: 4096, status: http.StatusOK},
		{name: "chunked body over limit", max: 16, body: command, contentLength: -1, status: http.StatusRequestEntityTooLarge, code: "PAYLOAD_TOO_LARGE"},
		{name: "declared length over limit", max: 16, body: "{}", contentLength: 1 << 20, status: http.StatusRequestEntityTooLarge, code: "PAYLOAD_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := BodyLimit{Max: tt.max}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				seen = string(data)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/doc-1/commands", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if tt.code != "" {
				if !strings.Contains(rr.Body.String(), tt.code) || !strings.Contains(rr.Body.String(), `"maxBytes"`) {
					t.Fatalf("expected %s with maxBytes, got %s", tt.code, rr.Body.String())
				}
				return
			}
			if seen != tt.body {
				t.Fatalf("expected body to reach the handler intact, got %q", seen)
			}
		})
	}
}
