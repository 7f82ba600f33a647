package locker

import (
	"context"
	"time"

	"learning_streak_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 只有持有者才能删除
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的跨实例锁。ttl 需大于一次更新的最长耗时
type RedisLocker struct {
	Redis      *redis.Client
	prefix     string
	ttl        time.Duration
	wait       time.Duration
	retryEvery time.Duration
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		Redis:      rdb,
		prefix:     prefix,
		ttl:        ttl,
		wait:       wait,
		retryEvery: 50 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.New().String()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.Redis.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			switch ctx.Err() {
			case context.DeadlineExceeded:
				return nil, ErrLockTimeout
			case context.Canceled:
				return nil, ctx.Err()
			}
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// 请求 ctx 可能已取消，释放使用独立的超时
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// 释放失败时锁在 ttl 后自动过期
		if err := releaseScript.Run(releaseCtx, l.Redis, []string{fullKey}, token).Err(); err != nil {
			logger.Log.Warn("release lock failed", zap.String("key", fullKey), zap.Error(err))
		}
	}, nil
}
