package core

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// TableName 标识 KuaiRec 数据集中的一张表。
type TableName string

const (
	SmallMatrix    TableName = "small_matrix"    // 交互日志（子集，全观测）
	BigMatrix      TableName = "big_matrix"      // 交互日志（全量）
	ItemCategories TableName = "item_categories" // 物品类目，feat 为 JSON 列表
	ItemFeatures   TableName = "item_features"   // 物品每日统计
	SocialNetwork  TableName = "social_network"  // 用户好友关系
	UserFeatures   TableName = "user_features"   // 用户画像
	Captions       TableName = "captions"        // 物品标题与类目
)

var tableOrder = []TableName{
	SmallMatrix,
	BigMatrix,
	ItemCategories,
	ItemFeatures,
	SocialNetwork,
	UserFeatures,
	Captions,
}

var tableFiles = map[TableName]string{
	SmallMatrix:    "small_matrix.csv",
	BigMatrix:      "big_matrix.csv",
	ItemCategories: "item_categories.csv",
	ItemFeatures:   "item_daily_features.csv",
	SocialNetwork:  "social_network.csv",
	UserFeatures:   "user_features.csv",
	Captions:       "kuairec_caption_category.csv",
}

// Order 返回七张表的固定顺序（加载与返回均按此顺序）。
func Order() []TableName {
	out := make([]TableName, len(tableOrder))
	copy(out, tableOrder)
	return out
}

// FileName 返回表对应的 CSV 文件名。
func (n TableName) FileName() string {
	return tableFiles[n]
}

// Valid 判断是否为已知表名。
func (n TableName) Valid() bool {
	_, ok := tableFiles[n]
	return ok
}

// ParseTableName 将字符串解析为 TableName。
func ParseTableName(s string) (TableName, error) {
	n := TableName(s)
	if !n.Valid() {
		return "", NewDomainError(ModuleConfig, ErrorCodeInvalidInput, fmt.Sprintf("unknown table %q", s))
	}
	return n, nil
}

// ParseMode 是 CSV 的解析容错策略，按数据源显式指定。
type ParseMode string

const (
	// ParseStrict 任一行格式错误即整体失败
	ParseStrict ParseMode = "strict"
	// ParseTolerant 跳过格式错误的行并继续
	ParseTolerant ParseMode = "tolerant"
)

// Valid 判断是否为已知解析模式。
func (m ParseMode) Valid() bool {
	return m == ParseStrict || m == ParseTolerant
}

// Table 是加载到内存的一张表。
//
// Frame 保存原始列；Lists 保存从 JSON 文本解析出的列表列（如 item_categories.feat），
// 与 Frame 按行对齐。解析后的列不再出现在 Frame 中。
// 列表元素：整数为 int64，其余数值为 float64，另有 string、bool、nil 与嵌套的 []any / map[string]any。
type Table struct {
	Name  TableName
	Frame dataframe.DataFrame
	Lists map[string][][]any

	// Skipped 是容错解析时跳过的坏行数
	Skipped int
}

// NewTable 创建 Table。
func NewTable(name TableName, df dataframe.DataFrame) *Table {
	return &Table{Name: name, Frame: df}
}

// Nrow 返回行数。
func (t *Table) Nrow() int {
	return t.Frame.Nrow()
}

// Columns 返回所有列名：Frame 列在前，列表列按名称排序在后。
func (t *Table) Columns() []string {
	cols := t.Frame.Names()
	return append(cols, t.listOrder()...)
}

// Series 返回 Frame 的所有列（按列顺序）。
func (t *Table) Series() []series.Series {
	names := t.Frame.Names()
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = t.Frame.Col(name)
	}
	return cols
}

// HasColumn 判断列是否存在（Frame 或 Lists 中）。
func (t *Table) HasColumn(name string) bool {
	if _, ok := t.Lists[name]; ok {
		return true
	}
	for _, c := range t.Frame.Names() {
		if c == name {
			return true
		}
	}
	return false
}

// List 返回列表列第 row 行的值。
func (t *Table) List(column string, row int) ([]any, bool) {
	col, ok := t.Lists[column]
	if !ok || row < 0 || row >= len(col) {
		return nil, false
	}
	return col[row], true
}

// WithFrame 返回共享 Lists 但替换 Frame 的新 Table，调用方需保证行对齐。
func (t *Table) WithFrame(df dataframe.DataFrame) *Table {
	return &Table{Name: t.Name, Frame: df, Lists: t.Lists, Skipped: t.Skipped}
}

// Subset 按行下标同时裁剪 Frame 与 Lists。
func (t *Table) Subset(rows []int) (*Table, error) {
	df := t.Frame.Subset(rows)
	if df.Err != nil {
		return nil, fmt.Errorf("subset %s: %w", t.Name, df.Err)
	}
	out := &Table{Name: t.Name, Frame: df, Skipped: t.Skipped}
	if len(t.Lists) > 0 {
		out.Lists = make(map[string][][]any, len(t.Lists))
		for name, col := range t.Lists {
			sub := make([][]any, len(rows))
			for i, r := range rows {
				sub[i] = col[r]
			}
			out.Lists[name] = sub
		}
	}
	return out, nil
}

// listOrder 返回列表列名的稳定顺序
func (t *Table) listOrder() []string {
	if len(t.Lists) == 0 {
		return nil
	}
	names := make([]string, 0, len(t.Lists))
	for name := range t.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
