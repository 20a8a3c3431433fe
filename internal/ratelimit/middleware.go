package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-lab/internal/common"
)

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// ClientDocumentKey keys the limit on the caller's address and the document
// being edited, so one busy document does not starve the caller's others.
func ClientDocumentKey(r *http.Request) string {
	key := common.ClientIP(r)
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if id := strings.TrimSpace(rc.URLParam("id")); id != "" {
			key += ":" + id
		}
	}
	return key
}

// Middleware rejects edits beyond the configured rate with 429. Limiter
// failures are reported through OnError and the edit proceeds.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		d, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		setLimitHeaders(w.Header(), max(h.Config.Max, 0), d)
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}
		retryAfter := retryAfterSeconds(d.Reset)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many edits, slow down", map[string]any{"retryAfter": retryAfter})
	})
}

func setLimitHeaders(headers http.Header, limit int, d Decision) {
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
}

// retryAfterSeconds rounds up so clients never retry a moment too early.
func retryAfterSeconds(reset time.Time) int {
	wait := time.Until(reset)
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Seconds()))
}
