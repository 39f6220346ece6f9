// Package conv 提供单元格值、配置 map 的类型转换工具，供 clean、dsl、export 等模块复用。
package conv

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/series"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ElementValue 将 gota 单元格转为 Go 原生值：Int→int64、Float→float64、Bool→bool、String→string。
// 空值（NaN）返回 nil。
func ElementValue(e series.Element) any {
	if e.IsNA() {
		return nil
	}
	switch e.Type() {
	case series.Int:
		i, err := e.Int()
		if err != nil {
			return nil
		}
		return int64(i)
	case series.Float:
		f := e.Float()
		if math.IsNaN(f) {
			return nil
		}
		return f
	case series.Bool:
		b, err := e.Bool()
		if err != nil {
			return nil
		}
		return b
	default:
		return e.String()
	}
}

// RowValues 返回 df 第 row 行各列的原生值，key 为列名。
func RowValues(cols []series.Series, row int) map[string]any {
	out := make(map[string]any, len(cols))
	for _, s := range cols {
		out[s.Name] = ElementValue(s.Elem(row))
	}
	return out
}

// SliceAnyToString 将 []any（即 []interface{}）转为 []string。
// 元素为 string 直接保留，为数字时格式化为 "%.0f"。
func SliceAnyToString(v any) []string {
	if v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
			continue
		}
		if f, ok := ToFloat64(e); ok {
			out = append(out, fmt.Sprintf("%.0f", f))
		}
	}
	return out
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetFloat64 从 config 取 float64。YAML 中的 0 会被解析为 int，此处统一。
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	if f, ok := ToFloat64(v); ok {
		return f
	}
	return defaultVal
}
