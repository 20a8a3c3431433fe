package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-lab/internal/common"
)

// NewRedisStore returns a fixed-window limiter store shared by every API replica.
func NewRedisStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if prefix == "" {
		prefix = "ratelimit:global"
	}
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
}

// NewGlobal builds the coarse per-IP limit that sits in front of the whole API.
// formatted uses the "<limit>-<period>" notation, e.g. "600-M". Store failures
// are reported through onError and answered with 503.
func NewGlobal(store limiter.Store, formatted string, onError func(error)) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: global rate %q: %w", formatted, err)
	}
	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithKeyGetter(common.ClientIP),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if onError != nil {
				onError(err)
			}
			common.JSONError(w, http.StatusServiceUnavailable, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable", nil)
		}),
	)
	return mw.Handler, nil
}
