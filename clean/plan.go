package clean

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/pipeline"
)

// UserFeatureColumns 是清洗后 user_features 保留的列。
func UserFeatureColumns() []string {
	cols := []string{"user_active_degree", "follow_user_num"}
	for i := 0; i < 18; i++ {
		cols = append(cols, fmt.Sprintf("onehot_feat%d", i))
	}
	return cols
}

// defaultOrder 是默认清洗的执行顺序；其余表默认不清洗。
var defaultOrder = []core.TableName{
	core.SmallMatrix,
	core.BigMatrix,
	core.ItemCategories,
	core.UserFeatures,
}

// Plan 是每张表的清洗 Pipeline。
type Plan struct {
	pipelines map[core.TableName]*pipeline.Pipeline
}

// DefaultPlan 返回固定的清洗规则：
//   - small_matrix / big_matrix：去空值、去重、timestamp >= 0
//   - item_categories：去空值、去重、feat 解析为列表
//   - user_features：投影到 UserFeatureColumns，空值填 -1
func DefaultPlan() *Plan {
	interactions := func() *pipeline.Pipeline {
		return &pipeline.Pipeline{Nodes: []pipeline.Node{
			&DropNA{},
			&DropDuplicates{},
			&MinValue{Column: "timestamp", Min: 0},
		}}
	}
	return &Plan{pipelines: map[core.TableName]*pipeline.Pipeline{
		core.SmallMatrix: interactions(),
		core.BigMatrix:   interactions(),
		core.ItemCategories: {Nodes: []pipeline.Node{
			&DropNA{},
			&DropDuplicates{},
			&JSONList{Column: "feat"},
		}},
		core.UserFeatures: {Nodes: []pipeline.Node{
			&SelectColumns{Columns: UserFeatureColumns()},
			&FillNA{Value: -1},
		}},
	}}
}

// Extend 在表的默认规则之后追加 Node；默认规则不会被替换。
func (p *Plan) Extend(name core.TableName, nodes ...pipeline.Node) *Plan {
	pl, ok := p.pipelines[name]
	if !ok {
		pl = &pipeline.Pipeline{}
		p.pipelines[name] = pl
	}
	pl.Append(nodes...)
	return p
}

// Pipeline 返回表的清洗 Pipeline，没有规则时返回 nil。
func (p *Plan) Pipeline(name core.TableName) *pipeline.Pipeline {
	return p.pipelines[name]
}

// Tables 返回需要清洗的表，按执行顺序：先 defaultOrder，再按 core.Order 追加其余有规则的表。
func (p *Plan) Tables() []core.TableName {
	out := make([]core.TableName, 0, len(p.pipelines))
	seen := make(map[core.TableName]bool, len(p.pipelines))
	for _, name := range append(append([]core.TableName{}, defaultOrder...), core.Order()...) {
		if seen[name] {
			continue
		}
		seen[name] = true
		if pl, ok := p.pipelines[name]; ok && len(pl.Nodes) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// Apply 按顺序清洗 Dataset 中的表；任一表失败即返回错误，ds 不会被部分修改。
func (p *Plan) Apply(ctx context.Context, ds *core.Dataset, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	cleaned := make([]*core.Table, 0, len(p.pipelines))
	for _, name := range p.Tables() {
		in := ds.Get(name)
		if in == nil {
			return core.NewDomainError(core.ModuleClean, core.ErrorCodeInvalidInput,
				fmt.Sprintf("table %s not loaded", name))
		}
		start := time.Now()
		out, err := p.pipelines[name].Run(ctx, in)
		if err != nil {
			return err
		}
		logger.Debug("table cleaned",
			"table", name,
			"rows_in", in.Nrow(),
			"rows_out", out.Nrow(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		cleaned = append(cleaned, out)
	}
	for _, t := range cleaned {
		if err := ds.Set(t); err != nil {
			return err
		}
	}
	ds.Cleaned = true
	return nil
}
