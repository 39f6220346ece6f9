package pipeline

import (
	"fmt"
)

// NodeConfig 是单个 Node 的配置（支持 YAML/JSON）。
type NodeConfig struct {
	Type   string                 `yaml:"type" json:"type"`     // clean.where / clean.min_value 等
	Config map[string]interface{} `yaml:"config" json:"config"` // Node 特定配置
}

// NodeBuilder 根据 config 构建 Node。
type NodeBuilder func(map[string]interface{}) (Node, error)

// Build 根据配置构建 Pipeline（需要 NodeFactory 注册 Node 构建器）。
func Build(factory *NodeFactory, configs []NodeConfig) (*Pipeline, error) {
	nodes := make([]Node, 0, len(configs))

	for _, nc := range configs {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("build node %s: %w", nc.Type, err)
		}
		nodes = append(nodes, node)
	}

	return &Pipeline{Nodes: nodes}, nil
}

// NodeFactory 用于根据配置构建 Node 实例。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{
		builders: make(map[string]NodeBuilder),
	}
}

// Register 注册 Node 构建器。
func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Has 判断类型是否已注册。
func (f *NodeFactory) Has(nodeType string) bool {
	_, ok := f.builders[nodeType]
	return ok
}

// Build 根据类型和配置构建 Node。
func (f *NodeFactory) Build(nodeType string, config map[string]interface{}) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	return builder(config)
}
