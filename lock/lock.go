// Package lock 提供 core.Locker 的实现，用于首次下载数据集时的互斥。
//
// 示例：
//
//	var l core.Locker = lock.NewFileLocker(500 * time.Millisecond)
//	unlock, err := l.Lock(ctx, "data/data_extracted", 30*time.Minute)
//	if err != nil { ... }
//	defer unlock()
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/kuairec/config"
	"github.com/rushteam/kuairec/core"
)

// New 按配置选择锁后端。
func New(cfg config.LockConfig) (core.Locker, error) {
	poll := cfg.PollInterval.Std()
	switch cfg.Backend {
	case "", "none":
		return core.NopLocker{}, nil
	case "memory":
		return NewMemoryLocker(), nil
	case "file":
		return NewFileLocker(poll), nil
	case "redis":
		return NewRedisLocker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, poll)
	default:
		return nil, core.NewDomainError(core.ModuleLock, core.ErrorCodeInvalidInput,
			fmt.Sprintf("unknown lock backend %q", cfg.Backend))
	}
}

// wait 等待 d 或 ctx 结束；ctx 结束时返回 ErrLockTimeout 包装的错误。
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", core.ErrLockTimeout, ctx.Err())
	}
}
