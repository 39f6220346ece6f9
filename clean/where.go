package clean

import (
	"context"
	"fmt"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/pipeline"
	"github.com/rushteam/kuairec/pkg/conv"
	"github.com/rushteam/kuairec/pkg/dsl"
)

// Where 保留满足 CEL 表达式的行，表达式通过 row.<列名> 访问单元格，例如 `row.watch_ratio < 5.0`。
type Where struct {
	pred *dsl.Predicate
}

// NewWhere 编译表达式并创建 Where。
func NewWhere(expr string) (*Where, error) {
	pred, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleClean, core.ErrorCodeInvalidInput,
			fmt.Sprintf("where %q", expr), err)
	}
	return &Where{pred: pred}, nil
}

func (n *Where) Name() string        { return "clean.where" }
func (n *Where) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Where) Process(ctx context.Context, t *core.Table) (*core.Table, error) {
	nrow := t.Nrow()
	cols := t.Series()
	drop := make([]bool, nrow)
	for i := 0; i < nrow; i++ {
		if i%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := conv.RowValues(cols, i)
		for name, col := range t.Lists {
			row[name] = col[i]
		}
		ok, err := n.pred.Match(row)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleClean, core.ErrorCodeInvalidInput,
				fmt.Sprintf("where %q on %s row %d", n.pred, t.Name, i), err)
		}
		drop[i] = !ok
	}
	return keepRows(t, drop)
}
