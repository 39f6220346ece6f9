// Package dataset 组合下载、读取与清洗，是加载 KuaiRec 数据集的入口。
//
// 用法：
//
//	loader, err := dataset.NewLoader(config.Default())
//	if err != nil { ... }
//	ds, err := loader.Load(ctx, true)
//	for _, t := range ds.Tables() { fmt.Println(t.Name, t.Nrow()) }
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/kuairec/acquire"
	"github.com/rushteam/kuairec/clean"
	"github.com/rushteam/kuairec/config"
	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/lock"
	"github.com/rushteam/kuairec/pipeline"
	"github.com/rushteam/kuairec/table"
)

// Loader 加载七张表。每次 Load 都会重新读取文件，返回的 Dataset 由调用方独占。
type Loader struct {
	cfg      *config.Config
	acquirer *acquire.Acquirer
	plan     *clean.Plan
	logger   *slog.Logger

	locker  core.Locker
	factory *pipeline.NodeFactory
	acqOpts []acquire.Option
}

// Option 配置 Loader。
type Option func(*Loader)

// WithLogger 设置 logger，默认 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithLocker 覆盖配置中的锁后端。
func WithLocker(l core.Locker) Option {
	return func(ld *Loader) { ld.locker = l }
}

// WithNodeFactory 使用自定义工厂构建额外清洗规则（可注册自定义 Node）。
func WithNodeFactory(f *pipeline.NodeFactory) Option {
	return func(ld *Loader) { ld.factory = f }
}

// WithAcquireOptions 透传给 acquire.New，例如自定义 HTTP 客户端。
func WithAcquireOptions(opts ...acquire.Option) Option {
	return func(ld *Loader) { ld.acqOpts = append(ld.acqOpts, opts...) }
}

// NewLoader 校验配置并创建 Loader。
func NewLoader(cfg *config.Config, opts ...Option) (*Loader, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ld := &Loader{cfg: cfg}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.logger == nil {
		ld.logger = slog.Default()
	}
	if ld.factory == nil {
		ld.factory = clean.DefaultFactory()
	}
	if ld.locker == nil {
		l, err := lock.New(cfg.Lock)
		if err != nil {
			return nil, err
		}
		ld.locker = l
	}

	plan, err := buildPlan(cfg, ld.factory)
	if err != nil {
		return nil, err
	}
	ld.plan = plan

	acqOpts := append([]acquire.Option{
		acquire.WithLocker(ld.locker),
		acquire.WithLogger(ld.logger),
	}, ld.acqOpts...)
	ld.acquirer = acquire.New(cfg, acqOpts...)
	return ld, nil
}

// buildPlan 在默认清洗规则之后追加配置中的额外规则，按固定表顺序追加。
func buildPlan(cfg *config.Config, factory *pipeline.NodeFactory) (*clean.Plan, error) {
	plan := clean.DefaultPlan()
	for _, name := range core.Order() {
		rules, ok := cfg.Cleaning.Extra[string(name)]
		if !ok || len(rules) == 0 {
			continue
		}
		extra, err := pipeline.Build(factory, rules)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("cleaning.extra.%s", name), err)
		}
		plan.Extend(name, extra.Nodes...)
	}
	return plan, nil
}

// Plan 返回生效的清洗计划。
func (l *Loader) Plan() *clean.Plan { return l.plan }

// EnsureLocalCopy 确保数据集已下载并解压，重复调用不会重复下载。
func (l *Loader) EnsureLocalCopy(ctx context.Context) (string, error) {
	return l.acquirer.EnsureLocalCopy(ctx)
}

// LoadDefault 按配置中的 clean 开关加载。
func (l *Loader) LoadDefault(ctx context.Context) (*core.Dataset, error) {
	return l.Load(ctx, l.cfg.Dataset.Clean)
}

// Load 确保数据集存在后读取七张表；cleanData 为 true 时应用清洗规则。
// 任一步骤失败都返回错误，不返回部分结果。
func (l *Loader) Load(ctx context.Context, cleanData bool) (*core.Dataset, error) {
	dir, err := l.EnsureLocalCopy(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	l.logger.Info("loading data", "dir", dir, "read_concurrency", l.cfg.Dataset.ReadConcurrency)
	ds, err := l.readAll(ctx, dir)
	if err != nil {
		return nil, err
	}
	l.logger.Info("data loaded", "duration_ms", time.Since(start).Milliseconds())

	if !cleanData {
		return ds, nil
	}

	start = time.Now()
	l.logger.Info("cleaning data", "tables", len(l.plan.Tables()))
	if err := l.plan.Apply(ctx, ds, l.logger); err != nil {
		return nil, err
	}
	l.logger.Info("data cleaned", "duration_ms", time.Since(start).Milliseconds())
	return ds, nil
}

// readAll 读取七张表；并发度由 read_concurrency 控制，结果按位置写入，顺序固定。
func (l *Loader) readAll(ctx context.Context, dir string) (*core.Dataset, error) {
	names := core.Order()
	tables := make([]*core.Table, len(names))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(l.cfg.Dataset.ReadConcurrency)
	for i, name := range names {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mode := l.cfg.ParseMode(name)
			t, err := table.Read(name, filepath.Join(dir, name.FileName()), mode)
			if err != nil {
				return err
			}
			l.logger.Debug("table read", "table", name, "mode", mode, "rows", t.Nrow(), "cols", len(t.Columns()))
			if t.Skipped > 0 {
				l.logger.Warn("malformed rows skipped", "table", name, "skipped", t.Skipped)
			}
			tables[i] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ds := &core.Dataset{}
	for _, t := range tables {
		if err := ds.Set(t); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
