package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rushteam/kuairec/core"
)

// MemoryLocker 是进程内实现的 Locker，用于测试/单进程多 goroutine。
// 不支持 TTL：持有者必须调用 unlock。
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]chan struct{}),
	}
}

func (m *MemoryLocker) Name() string { return "memory" }

func (m *MemoryLocker) Lock(ctx context.Context, key string, _ time.Duration) (func() error, error) {
	for {
		m.mu.Lock()
		released, held := m.locks[key]
		if !held {
			ch := make(chan struct{})
			m.locks[key] = ch
			m.mu.Unlock()
			return m.release(key, ch), nil
		}
		m.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", core.ErrLockTimeout, ctx.Err())
		}
	}
}

func (m *MemoryLocker) release(key string, ch chan struct{}) func() error {
	var once sync.Once
	return func() error {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.locks[key] == ch {
				delete(m.locks, key)
			}
			close(ch)
		})
		return nil
	}
}
