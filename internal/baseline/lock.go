package baseline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 表示同一周的另一条通知正在处理中
var ErrLockHeld = errors.New("another notification for this week is in progress")

// Locker 为同一周的 读取基线 -> 发送 -> 提交基线 提供互斥
type Locker interface {
	Lock(ctx context.Context, weekKey string) (unlock func(), err error)
}

// 只删除自己持有的锁，避免锁过期后误删他人的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client       *redis.Client
	ttl          time.Duration
	wait         time.Duration
	pollInterval time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client:       client,
		ttl:          ttl,
		wait:         wait,
		pollInterval: 100 * time.Millisecond,
	}
}

// Lock 在 wait 时间内反复尝试获取锁，超时返回 ErrLockHeld；redis 本身出错时原样返回
func (l *RedisLocker) Lock(ctx context.Context, weekKey string) (func(), error) {
	key := fmt.Sprintf("notify_lock_%s", weekKey)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// 请求的 ctx 可能已经取消，解锁使用独立的超时
				unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = unlockScript.Run(unlockCtx, l.client, []string{key}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockHeld
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}
