// Package acquire 负责把数据集压缩包下载并解压到本地，且只做一次。
//
// 完成标志是 local_root 下的 MarkerFile：解压先写入同级的临时目录，
// 写好标志后整体 rename 到 local_root，因此 local_root 要么不存在，要么是完整的。
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/rushteam/kuairec/config"
	"github.com/rushteam/kuairec/core"
)

// MarkerFile 是数据集已完整落盘的标志文件名
const MarkerFile = ".kuairec-complete"

// Acquirer 确保数据集在本地存在。
type Acquirer struct {
	root      string
	dataDir   string
	url       string
	userAgent string
	lockTTL   time.Duration

	client *http.Client
	locker core.Locker
	logger *slog.Logger
}

// Option 配置 Acquirer。
type Option func(*Acquirer)

// WithHTTPClient 使用自定义 HTTP 客户端（测试或代理场景）。
func WithHTTPClient(client *http.Client) Option {
	return func(a *Acquirer) { a.client = client }
}

// WithLocker 设置首次下载的互斥后端，默认不加锁。
func WithLocker(l core.Locker) Option {
	return func(a *Acquirer) { a.locker = l }
}

// WithLogger 设置 logger，默认 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(a *Acquirer) { a.logger = l }
}

// New 根据配置创建 Acquirer。
func New(cfg *config.Config, opts ...Option) *Acquirer {
	a := &Acquirer{
		root:      filepath.Clean(cfg.Dataset.LocalRoot),
		dataDir:   cfg.DataDir(),
		url:       cfg.Dataset.RemoteURL,
		userAgent: cfg.Download.UserAgent,
		lockTTL:   cfg.Lock.TTL.Std(),
		client:    &http.Client{Timeout: cfg.Download.Timeout.Std()},
		locker:    core.NopLocker{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Root 返回解压根目录。
func (a *Acquirer) Root() string { return a.root }

// DataDir 返回 CSV 所在目录。
func (a *Acquirer) DataDir() string { return a.dataDir }

// Complete 判断数据集是否已完整落盘。
func (a *Acquirer) Complete() bool {
	_, err := os.Stat(filepath.Join(a.root, MarkerFile))
	return err == nil
}

// EnsureLocalCopy 确保数据集在本地存在并返回 CSV 所在目录。
//
// 已完成时直接返回，不访问网络；否则加锁后下载、解压到临时目录、写完成标志、rename 到 local_root。
// 失败时删除临时压缩包与临时目录，下次调用会重新下载。
func (a *Acquirer) EnsureLocalCopy(ctx context.Context) (string, error) {
	if a.Complete() {
		return a.dataDir, nil
	}

	unlock, err := a.locker.Lock(ctx, a.root, a.lockTTL)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := unlock(); err != nil {
			a.logger.Warn("release acquisition lock", "backend", a.locker.Name(), "error", err)
		}
	}()

	// 等锁期间可能已由其他调用方完成
	if a.Complete() {
		return a.dataDir, nil
	}

	if _, err := os.Stat(a.root); err == nil {
		if err := a.adopt(); err != nil {
			return "", err
		}
		return a.dataDir, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "stat "+a.root, err)
	}

	if err := a.materialize(ctx); err != nil {
		return "", err
	}
	return a.dataDir, nil
}

// adopt 处理已存在但没有完成标志的目录：文件齐全则补写标志，否则报错且不删除任何内容。
func (a *Acquirer) adopt() error {
	var missing []string
	for _, name := range core.Order() {
		if _, err := os.Stat(filepath.Join(a.dataDir, name.FileName())); err != nil {
			missing = append(missing, name.FileName())
		}
	}
	if len(missing) > 0 {
		return core.NewDomainError(core.ModuleAcquire, core.ErrorCodeInvalidInput,
			fmt.Sprintf("incomplete dataset directory %s (missing %v): remove it to download again", a.root, missing))
	}
	if err := writeMarker(a.root, "adopted"); err != nil {
		return err
	}
	a.logger.Info("existing dataset adopted", "root", a.root)
	return nil
}

func (a *Acquirer) materialize(ctx context.Context) error {
	start := time.Now()
	parent := filepath.Dir(a.root)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "create "+parent, err)
	}

	archive, err := os.CreateTemp(parent, ".kuairec-*.zip")
	if err != nil {
		return core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "create temp archive", err)
	}
	archivePath := archive.Name()
	defer os.Remove(archivePath)

	a.logger.Info("downloading dataset", "url", a.url, "to", archivePath)
	n, err := a.download(ctx, archive)
	if cerr := archive.Close(); err == nil && cerr != nil {
		err = core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "close temp archive", cerr)
	}
	if err != nil {
		return err
	}
	a.logger.Info("dataset downloaded", "size", humanize.Bytes(uint64(n)))

	staging := a.root + ".partial-" + uuid.NewString()
	done := false
	defer func() {
		if !done {
			os.RemoveAll(staging)
		}
	}()

	files, size, err := extract(archivePath, staging)
	if err != nil {
		return err
	}
	if err := writeMarker(staging, a.url); err != nil {
		return err
	}
	if err := os.Rename(staging, a.root); err != nil {
		// 锁过期等情况下其他调用方可能已先完成，此时丢弃自己的副本
		if a.Complete() {
			a.logger.Warn("dataset completed by another caller, discarding own copy", "root", a.root)
			return nil
		}
		return core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "rename staging dir", err)
	}
	done = true

	a.logger.Info("dataset extracted",
		"root", a.root,
		"files", files,
		"size", humanize.Bytes(uint64(size)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeMarker(dir, source string) error {
	content := fmt.Sprintf("completed_at=%s\nsource=%s\n", time.Now().UTC().Format(time.RFC3339), source)
	if err := os.WriteFile(filepath.Join(dir, MarkerFile), []byte(content), 0o644); err != nil {
		return core.WrapDomainError(core.ModuleAcquire, core.ErrorCodeIOError, "write marker", err)
	}
	return nil
}
