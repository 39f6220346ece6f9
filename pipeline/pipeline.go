package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/kuairec/core"
)

// Pipeline 把一张表的清洗逻辑拆成可组合的 Node 链，按顺序执行。
type Pipeline struct {
	Nodes []Node
}

// Append 在末尾追加 Node。
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	p.Nodes = append(p.Nodes, nodes...)
	return p
}

// Run 依次执行所有 Node，遇到第一个错误即停止，不返回部分结果。
func (p *Pipeline) Run(ctx context.Context, t *core.Table) (*core.Table, error) {
	cur := t
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", node.Name(), t.Name, err)
		}
		cur = next
	}
	return cur, nil
}

// Names 返回 Node 名称列表（用于日志）。
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name()
	}
	return names
}
