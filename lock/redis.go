package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rushteam/kuairec/core"
)

// releaseScript 仅当 value 仍为自己的 token 时删除，避免误删他人的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker 是 Redis 实现的 Locker（SET NX PX + token），
// 适用于多台机器共享同一存储卷的场景。
type RedisLocker struct {
	client *redis.Client
	prefix string
	poll   time.Duration
}

func NewRedisLocker(addr, password string, db int, poll time.Duration) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, core.WrapDomainError(core.ModuleLock, core.ErrorCodeUnavailable, "lock: redis ping", err)
	}
	return NewRedisLockerWithClient(client, poll), nil
}

// NewRedisLockerWithClient 使用已有的 Redis 客户端创建 Locker。
func NewRedisLockerWithClient(client *redis.Client, poll time.Duration) *RedisLocker {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &RedisLocker{client: client, prefix: "kuairec:lock:", poll: poll}
}

func (r *RedisLocker) Name() string { return "redis" }

func (r *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func() error, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	k := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, k, token, ttl).Result()
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleLock, core.ErrorCodeUnavailable, "lock: redis setnx", err)
		}
		if ok {
			return func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return releaseScript.Run(ctx, r.client, []string{k}, token).Err()
			}, nil
		}
		if err := wait(ctx, r.poll); err != nil {
			return nil, err
		}
	}
}

// Close 关闭连接
func (r *RedisLocker) Close() error {
	return r.client.Close()
}

var _ core.Locker = (*RedisLocker)(nil)
var _ core.Locker = (*MemoryLocker)(nil)
var _ core.Locker = (*FileLocker)(nil)
