package clean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/pipeline"
)

// JSONList 把文本列（如 "[27, 9]"）解析为列表，写入 Table.Lists 并从 Frame 中移除原列。
// 任何合法的 JSON 数组都接受（元素类型见 core.Table）；JSON 语法错误、非数组或空值使整体失败。
type JSONList struct {
	Column string
}

func (n *JSONList) Name() string        { return "clean.json_list" }
func (n *JSONList) Kind() pipeline.Kind { return pipeline.KindTransform }

func (n *JSONList) Process(_ context.Context, t *core.Table) (*core.Table, error) {
	s, err := column(t, n.Column)
	if err != nil {
		return nil, err
	}

	parsed := make([][]any, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			return nil, core.NewDomainError(core.ModuleClean, core.ErrorCodeParseError,
				fmt.Sprintf("%s.%s row %d: null value", t.Name, n.Column, i))
		}
		list, err := decodeList(e.String())
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleClean, core.ErrorCodeParseError,
				fmt.Sprintf("%s.%s row %d: parse %q", t.Name, n.Column, i, e.String()), err)
		}
		parsed[i] = list
	}

	df := t.Frame.Drop(n.Column)
	if df.Err != nil {
		return nil, fmt.Errorf("drop %s: %w", n.Column, df.Err)
	}
	out := t.WithFrame(df)
	out.Lists = make(map[string][][]any, len(t.Lists)+1)
	for name, col := range t.Lists {
		out.Lists[name] = col
	}
	out.Lists[n.Column] = parsed
	return out, nil
}

// decodeList 解析一个 JSON 数组；null 视为空列表。
func decodeList(text string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	switch list := v.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return normalizeJSON(list).([]any), nil
	default:
		return nil, fmt.Errorf("not a JSON array")
	}
}

// normalizeJSON 把 json.Number 转为 int64（整数）或 float64
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = normalizeJSON(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeJSON(x[k])
		}
		return x
	default:
		return v
	}
}

// SelectColumns 投影到固定列集合，结果列顺序与 Columns 一致；缺列返回 INVALID_INPUT。
type SelectColumns struct {
	Columns []string
}

func (n *SelectColumns) Name() string        { return "clean.select" }
func (n *SelectColumns) Kind() pipeline.Kind { return pipeline.KindProject }

func (n *SelectColumns) Process(_ context.Context, t *core.Table) (*core.Table, error) {
	frameCols := make([]string, 0, len(n.Columns))
	var lists map[string][][]any
	for _, c := range n.Columns {
		if !t.HasColumn(c) {
			return nil, core.NewDomainError(core.ModuleClean, core.ErrorCodeInvalidInput,
				fmt.Sprintf("table %s has no column %q", t.Name, c))
		}
		if col, ok := t.Lists[c]; ok {
			if lists == nil {
				lists = make(map[string][][]any)
			}
			lists[c] = col
			continue
		}
		frameCols = append(frameCols, c)
	}

	df := t.Frame.Select(frameCols)
	if df.Err != nil {
		return nil, fmt.Errorf("select: %w", df.Err)
	}
	out := t.WithFrame(df)
	out.Lists = lists
	return out, nil
}

// FillNA 用 Value 替换所有空值；文本列写入 Value 的文本形式，布尔列转为整数列（true=1, false=0）。
// 整列为空的列无法推断类型（读入时为文本列），按数值列填充。
type FillNA struct {
	Value float64
}

func (n *FillNA) Name() string        { return "clean.fillna" }
func (n *FillNA) Kind() pipeline.Kind { return pipeline.KindTransform }

func (n *FillNA) Process(_ context.Context, t *core.Table) (*core.Table, error) {
	df := t.Frame
	integral := n.Value == math.Trunc(n.Value)
	for _, s := range t.Series() {
		if !hasNaN(s) {
			continue
		}
		filled := n.fill(s, integral)
		df = df.Mutate(filled)
		if df.Err != nil {
			return nil, fmt.Errorf("fill %s: %w", s.Name, df.Err)
		}
	}
	return t.WithFrame(df), nil
}

func (n *FillNA) fill(s series.Series, integral bool) series.Series {
	size := s.Len()
	if allNaN(s) {
		if integral {
			vals := make([]int, size)
			for i := range vals {
				vals[i] = int(n.Value)
			}
			return series.New(vals, series.Int, s.Name)
		}
		vals := make([]float64, size)
		for i := range vals {
			vals[i] = n.Value
		}
		return series.New(vals, series.Float, s.Name)
	}
	switch {
	case (s.Type() == series.Int || s.Type() == series.Bool) && integral:
		vals := make([]int, size)
		for i := 0; i < size; i++ {
			e := s.Elem(i)
			switch {
			case e.IsNA():
				vals[i] = int(n.Value)
			case s.Type() == series.Bool:
				if b, _ := e.Bool(); b {
					vals[i] = 1
				}
			default:
				vals[i], _ = e.Int()
			}
		}
		return series.New(vals, series.Int, s.Name)
	case s.Type() == series.String:
		text := strconv.FormatFloat(n.Value, 'g', -1, 64)
		vals := s.Records()
		for i := 0; i < size; i++ {
			if s.Elem(i).IsNA() {
				vals[i] = text
			}
		}
		return series.New(vals, series.String, s.Name)
	default:
		vals := s.Float()
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = n.Value
			}
		}
		return series.New(vals, series.Float, s.Name)
	}
}

func allNaN(s series.Series) bool {
	for _, na := range s.IsNaN() {
		if !na {
			return false
		}
	}
	return true
}

func hasNaN(s series.Series) bool {
	for _, na := range s.IsNaN() {
		if na {
			return true
		}
	}
	return false
}
