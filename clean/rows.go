package clean

import (
	"fmt"
	"strconv"

	"github.com/go-gota/gota/series"

	"github.com/rushteam/kuairec/core"
)

// keepRows 按 drop 标记裁剪表；没有行被删除时原样返回。
func keepRows(t *core.Table, drop []bool) (*core.Table, error) {
	rows := make([]int, 0, len(drop))
	for i, d := range drop {
		if !d {
			rows = append(rows, i)
		}
	}
	if len(rows) == len(drop) {
		return t, nil
	}
	return t.Subset(rows)
}

// column 取 Frame 中的列，不存在时返回 INVALID_INPUT。
func column(t *core.Table, name string) (series.Series, error) {
	for _, c := range t.Frame.Names() {
		if c == name {
			return t.Frame.Col(name), nil
		}
	}
	return series.Series{}, core.NewDomainError(core.ModuleClean, core.ErrorCodeInvalidInput,
		fmt.Sprintf("table %s has no column %q", t.Name, name))
}

// cellKey 返回单元格的精确文本形式；浮点数使用最短可逆格式，避免精度丢失导致误判重复。
func cellKey(e series.Element) string {
	if e.IsNA() {
		return "\x00NA"
	}
	switch e.Type() {
	case series.Float:
		return strconv.FormatFloat(e.Float(), 'g', -1, 64)
	default:
		return e.String()
	}
}
