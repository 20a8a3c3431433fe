package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/noah-isme/backend-lab/internal/common"
)

// BodyLimit caps request payloads. Document commands carry a single edit, so
// anything near the limit is a client bug rather than a real request.
type BodyLimit struct {
	Max int64
}

// Middleware buffers the body up to Max bytes and answers 413 beyond it, so
// handlers never decode a truncated document.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			tooLarge(w, b.Max)
			return
		}

		buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.Max))
		_ = r.Body.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				tooLarge(w, b.Max)
				return
			}
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body", nil)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter, max int64) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", map[string]any{"maxBytes": max})
}
