package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when MaxWait elapses before the lock is free.
var ErrNotAcquired = errors.New("lock: not acquired")

const (
	defaultTTL     = 30 * time.Second
	defaultBackoff = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so a save
// that outlived its TTL cannot drop a lock another process now owns.
var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Locker serialises saves of one document across api processes with SET NX.
type Locker struct {
	R            redis.Cmdable
	Prefix       string
	RetryBackoff time.Duration
	// MaxWait bounds how long WithLock polls for a held lock. Zero waits until ctx ends.
	MaxWait time.Duration
}

// DocumentKey returns the lock key guarding saves of one document.
func (l Locker) DocumentKey(documentID string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "lock:"
	}
	return prefix + "document:" + documentID
}

// WithLock runs fn while holding key. The lock is released when fn returns,
// including on error.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	token, err := l.acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer l.release(key, token)
	return fn(ctx)
}

func (l Locker) acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	backoff := l.RetryBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	var giveUp time.Time
	if l.MaxWait > 0 {
		giveUp = time.Now().Add(l.MaxWait)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return token, nil
		}
		if !giveUp.IsZero() && !time.Now().Add(backoff).Before(giveUp) {
			return "", ErrNotAcquired
		}
		timer.Reset(backoff)
	}
}

func (l Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = releaseScript.Run(ctx, l.R, []string{key}, token).Err()
}
