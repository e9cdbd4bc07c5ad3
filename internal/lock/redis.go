package lock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRedisTTL    = 2 * time.Minute
	defaultRedisPrefix = "screening:lock:"
	releaseTimeout     = 2 * time.Second
)

// compare-and-delete so a lock that expired and was taken by someone else is
// left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker shares keys between processes with SET NX. With no client, or
// when redis stops answering, it lets every caller through and relies on the
// in-process lock and the database unique index.
type RedisLocker struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *zap.Logger

	warnedUnavailable atomic.Bool
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: defaultRedisPrefix, logger: logger}
}

func (r *RedisLocker) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *RedisLocker) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis unavailable, bypassing distributed lock", zap.Error(err))
	}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	noop := func() {}
	if r.isUnavailable() {
		return noop, nil
	}

	redisKey := r.prefix + key
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.warnUnavailableOnce(err)
		return noop, nil
	}
	if !ok {
		return nil, ErrHeld
	}
	r.warnedUnavailable.Store(false)

	var released atomic.Bool
	return func() {
		if !released.CompareAndSwap(false, true) {
			return
		}
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(rctx, r.client, []string{redisKey}, token).Err(); err != nil {
			r.logger.Warn("redis lock release failed", zap.String("key", redisKey), zap.Error(err))
		}
	}, nil
}
