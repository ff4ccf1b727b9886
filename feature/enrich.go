package feature

import (
	"context"

	"github.com/rushteam/shopsense/core"
)

// Enricher 在特征准备之前补全商品的缺失字段（例如从在线特征库读取最新评分/排名）。
// 实现只应填充缺失字段，不覆盖调用方显式给出的值。
type Enricher interface {
	Enrich(ctx context.Context, p core.Product) (core.Product, error)
}

// EnricherFunc 函数适配器
type EnricherFunc func(ctx context.Context, p core.Product) (core.Product, error)

func (f EnricherFunc) Enrich(ctx context.Context, p core.Product) (core.Product, error) {
	return f(ctx, p)
}

// ChainEnricher 依次执行多个 Enricher；某一环失败时保留上一环的结果并返回错误。
type ChainEnricher []Enricher

func (c ChainEnricher) Enrich(ctx context.Context, p core.Product) (core.Product, error) {
	for _, e := range c {
		next, err := e.Enrich(ctx, p)
		if err != nil {
			return p, err
		}
		p = next
	}
	return p, nil
}

// FillMissing 用 src 的值补全 dst 中缺失（零值）的字段。
func FillMissing(dst, src core.Product) core.Product {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Price <= 0 {
		dst.Price = src.Price
	}
	if dst.Rating <= 0 {
		dst.Rating = src.Rating
	}
	if dst.ReviewCount <= 0 {
		dst.ReviewCount = src.ReviewCount
	}
	if dst.Rank <= 0 {
		dst.Rank = src.Rank
	}
	if dst.Stock <= 0 {
		dst.Stock = src.Stock
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
	if len(src.Extra) > 0 {
		merged := make(map[string]float64, len(dst.Extra)+len(src.Extra))
		for k, v := range src.Extra {
			merged[k] = v
		}
		for k, v := range dst.Extra {
			merged[k] = v
		}
		dst.Extra = merged
	}
	return dst
}
