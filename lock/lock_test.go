package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rushteam/kuairec/config"
	"github.com/rushteam/kuairec/core"
)

// exerciseMutualExclusion 并发获取同一个 key，检查同一时刻最多一个持有者
func exerciseMutualExclusion(t *testing.T, l core.Locker, key string) {
	t.Helper()
	var (
		wg      sync.WaitGroup
		holders int32
		maxSeen int32
		done    int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			unlock, err := l.Lock(ctx, key, time.Minute)
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			n := atomic.AddInt32(&holders, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
			atomic.AddInt32(&done, 1)
			if err := unlock(); err != nil {
				t.Errorf("unlock() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
	if done != 8 {
		t.Errorf("completed = %d, want 8", done)
	}
}

func TestMemoryLocker(t *testing.T) {
	exerciseMutualExclusion(t, NewMemoryLocker(), "k")
}

func TestMemoryLocker_ContextCancel(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := l.Lock(context.Background(), "k", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k", 0); !errors.Is(err, core.ErrLockTimeout) {
		t.Errorf("error = %v, want ErrLockTimeout", err)
	}
	if err := unlock(); err != nil {
		t.Errorf("second unlock error = %v", err)
	}
}

func TestFileLocker(t *testing.T) {
	key := filepath.Join(t.TempDir(), "data_extracted")
	l := NewFileLocker(2 * time.Millisecond)
	exerciseMutualExclusion(t, l, key)

	if _, err := os.Stat(l.Path(key)); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed after release, stat err = %v", err)
	}
}

func TestFileLocker_StaleLock(t *testing.T) {
	key := filepath.Join(t.TempDir(), "data_extracted")
	l := NewFileLocker(2 * time.Millisecond)

	path := l.Path(key)
	if err := os.WriteFile(path, []byte("crashed 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := l.Lock(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("Lock() over stale lock error = %v", err)
	}
	if err := unlock(); err != nil {
		t.Errorf("unlock() error = %v", err)
	}
}

func TestFileLocker_HeartbeatKeepsLockFresh(t *testing.T) {
	key := filepath.Join(t.TempDir(), "data_extracted")
	l := NewFileLocker(5 * time.Millisecond)
	ttl := 150 * time.Millisecond

	unlock, err := l.Lock(context.Background(), key, ttl)
	if err != nil {
		t.Fatal(err)
	}

	// 持有时间远超 ttl，锁仍不应被视为过期
	time.Sleep(3 * ttl)
	ctx, cancel := context.WithTimeout(context.Background(), ttl/2)
	defer cancel()
	if _, err := l.Lock(ctx, key, ttl); !errors.Is(err, core.ErrLockTimeout) {
		t.Fatalf("error = %v, want ErrLockTimeout while the holder is alive", err)
	}
	if info, err := os.Stat(l.Path(key)); err != nil || time.Since(info.ModTime()) > ttl {
		t.Errorf("lock file not refreshed: %v", err)
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock() error = %v", err)
	}
	unlock2, err := l.Lock(context.Background(), key, ttl)
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	if err := unlock2(); err != nil {
		t.Errorf("unlock() error = %v", err)
	}
	if err := unlock(); err != nil {
		t.Errorf("second unlock() error = %v", err)
	}
}

func TestFileLocker_Timeout(t *testing.T) {
	key := filepath.Join(t.TempDir(), "data_extracted")
	l := NewFileLocker(2 * time.Millisecond)
	unlock, err := l.Lock(context.Background(), key, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, key, time.Minute); !errors.Is(err, core.ErrLockTimeout) {
		t.Errorf("error = %v, want ErrLockTimeout", err)
	}
}

// TestRedisLocker 需要 Redis 服务，设置 KUAIREC_TEST_REDIS_ADDR 后运行
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("KUAIREC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("需要设置 KUAIREC_TEST_REDIS_ADDR 连接真实的 Redis 服务")
	}
	l, err := NewRedisLocker(addr, "", 0, 2*time.Millisecond)
	if err != nil {
		t.Fatalf("NewRedisLocker() error = %v", err)
	}
	defer l.Close()
	exerciseMutualExclusion(t, l, "test:"+t.Name())
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{"", "none"},
		{"none", "none"},
		{"memory", "memory"},
		{"file", "file"},
	}
	for _, tt := range tests {
		l, err := New(config.LockConfig{Backend: tt.backend})
		if err != nil {
			t.Fatalf("New(%q) error = %v", tt.backend, err)
		}
		if l.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.backend, l.Name(), tt.want)
		}
	}
	if _, err := New(config.LockConfig{Backend: "etcd"}); !core.IsInvalidInput(err) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
