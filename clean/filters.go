package clean

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/pipeline"
)

// DropNA 删除任一列为空的行。
type DropNA struct{}

func (n *DropNA) Name() string        { return "clean.dropna" }
func (n *DropNA) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *DropNA) Process(_ context.Context, t *core.Table) (*core.Table, error) {
	drop := make([]bool, t.Nrow())
	for _, s := range t.Series() {
		for i, na := range s.IsNaN() {
			if na {
				drop[i] = true
			}
		}
	}
	return keepRows(t, drop)
}

// DropDuplicates 删除与之前某行完全相同的行，保留首次出现。
type DropDuplicates struct{}

func (n *DropDuplicates) Name() string        { return "clean.dedup" }
func (n *DropDuplicates) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *DropDuplicates) Process(_ context.Context, t *core.Table) (*core.Table, error) {
	nrow := t.Nrow()
	cols := t.Series()
	lists := t.Columns()[len(cols):]

	seen := make(map[string]struct{}, nrow)
	drop := make([]bool, nrow)
	var b strings.Builder
	for i := 0; i < nrow; i++ {
		b.Reset()
		for _, s := range cols {
			b.WriteString(cellKey(s.Elem(i)))
			b.WriteByte(0x1f)
		}
		for _, name := range lists {
			fmt.Fprint(&b, t.Lists[name][i])
			b.WriteByte(0x1f)
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			drop[i] = true
			continue
		}
		seen[key] = struct{}{}
	}
	return keepRows(t, drop)
}

// MinValue 保留 Column >= Min 的行；空值或非数值视为不满足。
type MinValue struct {
	Column string
	Min    float64
}

func (n *MinValue) Name() string        { return "clean.min_value" }
func (n *MinValue) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *MinValue) Process(_ context.Context, t *core.Table) (*core.Table, error) {
	s, err := column(t, n.Column)
	if err != nil {
		return nil, err
	}
	vals := s.Float()
	drop := make([]bool, len(vals))
	for i, v := range vals {
		drop[i] = math.IsNaN(v) || v < n.Min
	}
	return keepRows(t, drop)
}
