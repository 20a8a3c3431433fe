package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem provides an Idempotency-Key middleware backed by Redis. Keys are scoped
// to the request method and path so the same key may be reused across documents.
type Idem struct {
	R   redis.Cmdable
	TTL time.Duration
}

func hashKey(method, path, key string) string {
	sum := sha256.Sum256([]byte(method + " " + path + " " + key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		ctx := r.Context()
		key := hashKey(r.Method, r.URL.Path, header)
		ok, err := i.R.SetNX(ctx, key, "locked", ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, "{\"error\":{\"code\":\"IDEMPOTENT_REPLAY\",\"message\":\"command already applied\"}}")
			return
		}
		recorder := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			// failed commands may be retried with the same key
			if recorder.status >= http.StatusBadRequest {
				_ = i.R.Del(context.Background(), key).Err()
				return
			}
			_ = i.R.Expire(context.Background(), key, ttl).Err()
		}()
		next.ServeHTTP(recorder, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
