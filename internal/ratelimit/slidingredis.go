package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// Reset is when the oldest counted edit leaves the window.
	Reset time.Time
}

// Limiter counts edits per key in a sliding window kept in a Redis sorted set.
// Rejected edits are recorded too, so a caller hammering one document stays
// throttled until it backs off for a full window.
type Limiter struct {
	Client redis.Cmdable
	Prefix string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records an edit for key and reports whether it is within max edits per window.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	now := l.now()
	if l.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, Reset: now.Add(window)}, nil
	}

	redisKey := l.Prefix + key
	cutoff := "(" + strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	var count *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := l.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		count = pipe.ZCard(ctx, redisKey)
		oldest = pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
		pipe.PExpire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return Decision{Reset: now.Add(window)}, fmt.Errorf("ratelimit: %w", err)
	}

	current := int(count.Val())
	d := Decision{
		Allowed:   current <= max,
		Remaining: max - current,
		Reset:     now.Add(window),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if z := oldest.Val(); len(z) > 0 {
		d.Reset = time.Unix(0, int64(z[0].Score)).Add(window)
	}
	return d, nil
}
