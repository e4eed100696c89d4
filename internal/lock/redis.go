package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockFailed 获取锁时 Redis 出错
	ErrLockFailed = errors.New("LOCK_FAILED")
	// ErrLockTimeout 在上下文结束前未能获取锁
	ErrLockTimeout = errors.New("LOCK_TIMEOUT")
)

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SETNX 的分布式锁
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedisLocker 创建分布式锁
func NewRedisLocker(client *redis.Client, ttl, retry time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  retry,
		logger: slog.Default(),
	}
}

// Acquire 获取锁，锁被占用时按 retry 间隔重试直到 ctx 结束
// 返回的 unlock 只释放本次获取的锁
func (l *RedisLocker) Acquire(ctx context.Context, key string) (unlock func(), err error) {
	token := newToken()

	for {
		locked, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			l.logger.Error("Failed to acquire lock", "key", key, "error", err)
			return nil, ErrLockFailed
		}
		if locked {
			break
		}

		select {
		case <-ctx.Done():
			l.logger.Warn("Lock is held by another operation", "key", key)
			return nil, ErrLockTimeout
		case <-time.After(l.retry):
		}
	}

	return func() {
		// 使用独立上下文，避免调用方已取消导致锁残留到 TTL
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release lock", "key", key, "error", err)
		}
	}, nil
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
