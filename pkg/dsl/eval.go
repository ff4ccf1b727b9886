package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shopsense/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("product", cel.DynType),
			cel.Variable("source", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Eval 是候选商品过滤 DSL，使用 CEL (Common Expression Language) 实现。
// 表达式编译一次，之后可并发调用 Match。
//
// 可用变量：
//   - product：候选商品（id, title, price, rating, review_count, rank, stock, category, extra）
//   - source：推荐的锚点商品，字段同上；热门榜等没有锚点的场景为空 map
//
// 示例：
//   - `product.stock > 0`
//   - `product.rating >= 4.0 && product.price < 200.0`
//   - `product.category != source.category`
//   - `"margin" in product.extra && product.extra.margin > 0.3`
//
// 数值字段统一为 double，整数字面量需要写成 4.0 这样的浮点形式。
type Eval struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式返回 nil（即不过滤）。
func Compile(expr string) (*Eval, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Eval{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (e *Eval) String() string {
	if e == nil {
		return ""
	}
	return e.expr
}

// Match 对候选商品求值。nil 的 Eval 总是返回 true。
func (e *Eval) Match(product, source *core.Product) (bool, error) {
	if e == nil {
		return true, nil
	}
	out, _, err := e.prg.Eval(map[string]interface{}{
		"product": productMap(product),
		"source":  productMap(source),
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// productMap 构建 CEL 输入；数值统一转为 float64
func productMap(p *core.Product) map[string]interface{} {
	if p == nil {
		return map[string]interface{}{}
	}
	extra := make(map[string]interface{}, len(p.Extra))
	for k, v := range p.Extra {
		extra[k] = v
	}
	return map[string]interface{}{
		"id":           p.ID,
		"title":        p.Title,
		"price":        p.Price,
		"rating":       p.Rating,
		"review_count": float64(p.ReviewCount),
		"rank":         float64(p.Rank),
		"stock":        float64(p.Stock),
		"category":     p.Category,
		"extra":        extra,
	}
}
