package clean

import (
	"fmt"

	"github.com/rushteam/kuairec/pipeline"
	"github.com/rushteam/kuairec/pkg/conv"
)

// DefaultFactory 返回包含所有内置清洗 Node 的工厂，供配置中的额外规则使用。
func DefaultFactory() *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("clean.dropna", buildDropNA)
	factory.Register("clean.dedup", buildDedup)
	factory.Register("clean.min_value", buildMinValue)
	factory.Register("clean.json_list", buildJSONList)
	factory.Register("clean.select", buildSelect)
	factory.Register("clean.fillna", buildFillNA)
	factory.Register("clean.where", buildWhere)

	return factory
}

func buildDropNA(map[string]interface{}) (pipeline.Node, error) {
	return &DropNA{}, nil
}

func buildDedup(map[string]interface{}) (pipeline.Node, error) {
	return &DropDuplicates{}, nil
}

func buildMinValue(config map[string]interface{}) (pipeline.Node, error) {
	col := conv.ConfigGet[string](config, "column", "")
	if col == "" {
		return nil, fmt.Errorf("column is required")
	}
	return &MinValue{Column: col, Min: conv.ConfigGetFloat64(config, "min", 0)}, nil
}

func buildJSONList(config map[string]interface{}) (pipeline.Node, error) {
	col := conv.ConfigGet[string](config, "column", "")
	if col == "" {
		return nil, fmt.Errorf("column is required")
	}
	return &JSONList{Column: col}, nil
}

func buildSelect(config map[string]interface{}) (pipeline.Node, error) {
	cols := conv.SliceAnyToString(config["columns"])
	if len(cols) == 0 {
		return nil, fmt.Errorf("columns is required")
	}
	return &SelectColumns{Columns: cols}, nil
}

func buildFillNA(config map[string]interface{}) (pipeline.Node, error) {
	return &FillNA{Value: conv.ConfigGetFloat64(config, "value", -1)}, nil
}

func buildWhere(config map[string]interface{}) (pipeline.Node, error) {
	expr := conv.ConfigGet[string](config, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr is required")
	}
	node, err := NewWhere(expr)
	if err != nil {
		return nil, err
	}
	return node, nil
}
