package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rushteam/kuairec/core"
)

// FileLocker 基于 O_EXCL 创建 "<key>.lock" 文件实现同机多进程互斥。
// 持有期间每 ttl/3 刷新一次锁文件的修改时间；修改时间早于 ttl 时视为持有者已崩溃，可被抢占。
type FileLocker struct {
	poll time.Duration
}

func NewFileLocker(poll time.Duration) *FileLocker {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &FileLocker{poll: poll}
}

func (f *FileLocker) Name() string { return "file" }

// Path 返回 key 对应的锁文件路径。
func (f *FileLocker) Path(key string) string {
	return filepath.Clean(key) + ".lock"
}

func (f *FileLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func() error, error) {
	path := f.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, core.WrapDomainError(core.ModuleLock, core.ErrorCodeIOError, "lock: create dir", err)
	}
	token := uuid.NewString()

	for {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(file, "%s %d\n", token, os.Getpid())
			cerr := file.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, core.WrapDomainError(core.ModuleLock, core.ErrorCodeIOError, "lock: write", errors.Join(werr, cerr))
			}
			stop := make(chan struct{})
			if ttl > 0 {
				go f.heartbeat(path, token, ttl/3, stop)
			}
			return f.release(path, token, stop), nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, core.WrapDomainError(core.ModuleLock, core.ErrorCodeIOError, "lock: create", err)
		}

		if ttl > 0 && f.breakStale(path, ttl) {
			continue
		}
		if err := wait(ctx, f.poll); err != nil {
			return nil, err
		}
	}
}

// breakStale 把过期锁移到一旁。移走的文件若已被他人刷新或重建（不再过期）则放回，
// 放回使用 Link，不会覆盖期间新建的锁。返回 true 表示应立即重试加锁。
func (f *FileLocker) breakStale(path string, ttl time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) <= ttl {
		return false
	}
	aside := path + ".stale-" + uuid.NewString()
	if err := os.Rename(path, aside); err != nil {
		// 已被其他调用方移走
		return errors.Is(err, fs.ErrNotExist)
	}
	defer os.Remove(aside)
	if moved, err := os.Stat(aside); err == nil && time.Since(moved.ModTime()) <= ttl {
		_ = os.Link(aside, path)
	}
	return true
}

// heartbeat 定期刷新锁文件的修改时间，直到 stop 关闭或锁不再属于自己。
func (f *FileLocker) heartbeat(path, token string, every time.Duration, stop <-chan struct{}) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !owns(path, token) {
				return
			}
			now := time.Now()
			_ = os.Chtimes(path, now, now)
		}
	}
}

func owns(path, token string) bool {
	data, err := os.ReadFile(path)
	return err == nil && strings.HasPrefix(string(data), token)
}

// release 只删除自己持有的锁文件，避免过期抢占后误删他人的锁。
func (f *FileLocker) release(path, token string, stop chan struct{}) func() error {
	var once sync.Once
	return func() error {
		once.Do(func() { close(stop) })
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !strings.HasPrefix(string(data), token) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
}
