package core

import (
	"context"
	"time"
)

// Locker 是下载互斥的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（lock）实现
//   - 首次下载时多个调用方并发进入，只允许一个执行下载与解压
//
// 实现：
//   - lock.MemoryLocker：进程内
//   - lock.FileLocker：同机多进程
//   - lock.RedisLocker：多机共享存储卷
type Locker interface {
	// Name 返回锁后端名称（用于日志）
	Name() string

	// Lock 阻塞直到获得 key 对应的锁或 ctx 结束；返回的 unlock 必须被调用
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func() error, err error)
}

// NopLocker 不做任何互斥，适用于确定只有单个调用方的场景。
type NopLocker struct{}

func (NopLocker) Name() string { return "none" }

func (NopLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func() error, error) {
	return func() error { return nil }, nil
}

// ErrLockTimeout 表示在 ctx 结束前未能获得锁
var ErrLockTimeout = NewDomainError(ModuleLock, ErrorCodeUnavailable, "lock: acquire timeout")
