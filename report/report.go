// Package report 汇总已加载数据集的行数、列信息与数值列统计。
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/kuairec/core"
)

// Summary 是整个数据集的摘要，表按固定顺序排列。
type Summary struct {
	Cleaned bool           `json:"cleaned"`
	Tables  []TableSummary `json:"tables"`
}

// TableSummary 是单表摘要。
type TableSummary struct {
	Name    core.TableName  `json:"name"`
	File    string          `json:"file"`
	Rows    int             `json:"rows"`
	Skipped int             `json:"skipped"`
	Columns []ColumnSummary `json:"columns"`
	Lists   []string        `json:"lists,omitempty"`
}

// ColumnSummary 是单列摘要；仅数值列填充统计字段。
type ColumnSummary struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	NonNull int     `json:"non_null"`
	Numeric bool    `json:"numeric"`
	Mean    float64 `json:"mean,omitempty"`
	Std     float64 `json:"std,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// Summarize 计算数据集摘要，不修改 ds。
func Summarize(ds *core.Dataset) *Summary {
	out := &Summary{Cleaned: ds.Cleaned}
	for _, t := range ds.Tables() {
		if t == nil {
			continue
		}
		out.Tables = append(out.Tables, summarizeTable(t))
	}
	return out
}

func summarizeTable(t *core.Table) TableSummary {
	ts := TableSummary{
		Name:    t.Name,
		File:    t.Name.FileName(),
		Rows:    t.Nrow(),
		Skipped: t.Skipped,
	}
	for _, name := range t.Frame.Names() {
		ts.Columns = append(ts.Columns, summarizeColumn(t.Frame.Col(name)))
	}
	for _, name := range t.Columns()[len(ts.Columns):] {
		ts.Lists = append(ts.Lists, name)
	}
	return ts
}

func summarizeColumn(s series.Series) ColumnSummary {
	cs := ColumnSummary{Name: s.Name, Type: string(s.Type())}

	if s.Type() != series.Int && s.Type() != series.Float {
		for _, na := range s.IsNaN() {
			if !na {
				cs.NonNull++
			}
		}
		return cs
	}

	cs.Numeric = true
	values := make([]float64, 0, s.Len())
	for _, v := range s.Float() {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	cs.NonNull = len(values)
	if len(values) == 0 {
		return cs
	}
	cs.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		cs.Std = stat.StdDev(values, nil)
	}
	cs.Min = floats.Min(values)
	cs.Max = floats.Max(values)
	return cs
}

// WriteText 以对齐文本输出摘要。
func (s *Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	state := "raw"
	if s.Cleaned {
		state = "cleaned"
	}
	fmt.Fprintf(tw, "dataset (%s)\n", state)
	for _, t := range s.Tables {
		fmt.Fprintf(tw, "\n%s\t%s rows\t%d columns\t%s\n", t.Name, humanize.Comma(int64(t.Rows)), len(t.Columns)+len(t.Lists), t.File)
		if t.Skipped > 0 {
			fmt.Fprintf(tw, "  skipped\t%s malformed rows\n", humanize.Comma(int64(t.Skipped)))
		}
		for _, c := range t.Columns {
			if !c.Numeric {
				fmt.Fprintf(tw, "  %s\t%s\tnon-null=%d\n", c.Name, c.Type, c.NonNull)
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\tnon-null=%d\tmean=%.4g\tstd=%.4g\tmin=%.4g\tmax=%.4g\n",
				c.Name, c.Type, c.NonNull, c.Mean, c.Std, c.Min, c.Max)
		}
		for _, l := range t.Lists {
			fmt.Fprintf(tw, "  %s\tlist\n", l)
		}
	}
	return tw.Flush()
}
