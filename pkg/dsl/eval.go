package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境；表达式通过 row 变量访问当前行
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// Predicate 是编译后的行过滤表达式，使用 CEL (Common Expression Language)。
// 编译一次，可对任意多行求值；并发安全。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：row.watch_ratio < 5.0 / row.play_duration >= 1000
//   - 逻辑：row.date >= 20200705 && row.watch_ratio > 0.5
//   - 空值：row.caption != null
//   - 字符串：row.user_active_degree.startsWith("high")
//
// 空单元格以 null 传入。
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，要求结果类型为 bool。
func Compile(expr string) (*Predicate, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must return bool, got %s", out)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Predicate) String() string { return p.expr }

// Match 对一行求值。row 的 key 为列名，value 为 int64/float64/string/bool 或 nil。
func (p *Predicate) Match(row map[string]any) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{"row": row})
	if err != nil {
		// 访问不存在的列时 CEL 会返回 no such key
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}
