package pipeline

import (
	"context"

	"github.com/rushteam/kuairec/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter    Kind = "filter"    // 过滤：只删除行，不改变列
	KindTransform Kind = "transform" // 变换：改写单元格或解析嵌套字段
	KindProject   Kind = "project"   // 投影：改变列集合
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 table -> 输出 table”的形态；实现不得修改输入，需返回新的 Table。
type Node interface {
	Name() string
	Kind() Kind

	Process(ctx context.Context, t *core.Table) (*core.Table, error)
}
