package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisLocker holds a key with SET NX PX so that concurrent API instances
// share one lock per key. The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	client    redis.Cmdable
	prefix    string
	ttl       time.Duration
	retries   int
	retryWait time.Duration
	newToken  func() string
}

type RedisOption func(*RedisLocker)

// WithRetry makes Acquire try again up to n more times, waiting wait between attempts.
func WithRetry(n int, wait time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.retries = n
		l.retryWait = wait
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:   client,
		prefix:   "lock:",
		ttl:      ttl,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := l.newToken()

	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		if attempt >= l.retries {
			return nil, ErrNotAcquired
		}
		select {
		case <-time.After(l.retryWait):
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		}
	}

	return func() {
		// The caller's context may already be cancelled; the lock still has to go.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := l.client.Eval(releaseCtx, releaseScript, []string{redisKey}, token).Err(); err != nil {
			slog.Warn("failed to release lock", "key", redisKey, "error", err)
		}
	}, nil
}
