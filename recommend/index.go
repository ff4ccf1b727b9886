// Package recommend 是基于当前商品目录的确定性推荐打分（相似、升级、交叉、热门、折扣）。
//
// 它不是训练出来的模型：Index 是目录的不可变快照，每次 Engine.Index 整体重建；
// 所有查询都是快照上的纯函数，可并发调用。
package recommend

import (
	"math"
	"sort"
	"strconv"

	"github.com/rushteam/shopsense/core"
)

// PriceStats 类目价格分布（只统计 price > 0 的商品）
type PriceStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Count  int     `json:"count"`
}

// Index 商品目录快照
type Index struct {
	products   []core.Product
	byID       map[string]int
	byCategory map[string][]core.Product
	categories []string
	stats      map[string]PriceStats
}

// NewIndex 构建快照。没有 id 的商品使用其下标作为 id；id 重复时后者覆盖前者。
func NewIndex(products []core.Product) *Index {
	idx := &Index{
		products:   make([]core.Product, 0, len(products)),
		byID:       make(map[string]int, len(products)),
		byCategory: make(map[string][]core.Product),
		stats:      make(map[string]PriceStats),
	}
	for i, p := range products {
		if p.ID == "" {
			p.ID = strconv.Itoa(i)
		}
		if pos, ok := idx.byID[p.ID]; ok {
			idx.products[pos] = p
			continue
		}
		idx.byID[p.ID] = len(idx.products)
		idx.products = append(idx.products, p)
	}
	for _, p := range idx.products {
		cat := p.CategoryOrUnknown()
		idx.byCategory[cat] = append(idx.byCategory[cat], p)
	}
	for cat, items := range idx.byCategory {
		idx.categories = append(idx.categories, cat)
		prices := make([]float64, 0, len(items))
		for _, p := range items {
			if p.Price > 0 {
				prices = append(prices, p.Price)
			}
		}
		if len(prices) == 0 {
			continue
		}
		sort.Float64s(prices)
		idx.stats[cat] = PriceStats{
			Min:    prices[0],
			Max:    prices[len(prices)-1],
			Median: percentile(prices, 50),
			Q1:     percentile(prices, 25),
			Q3:     percentile(prices, 75),
			Count:  len(prices),
		}
	}
	sort.Strings(idx.categories)
	return idx
}

// percentile 线性插值分位数，sorted 必须已升序
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Len 商品数
func (idx *Index) Len() int { return len(idx.products) }

// Products 全部商品（按索引顺序），调用方不得修改
func (idx *Index) Products() []core.Product { return idx.products }

// Product 按 id 查找
func (idx *Index) Product(id string) (core.Product, bool) {
	pos, ok := idx.byID[id]
	if !ok {
		return core.Product{}, false
	}
	return idx.products[pos], true
}

// Categories 类目列表（排序）
func (idx *Index) Categories() []string { return idx.categories }

// CategoryProducts 类目下的商品（按索引顺序）
func (idx *Index) CategoryProducts(category string) []core.Product {
	return idx.byCategory[category]
}

// Stats 类目价格统计；类目内没有有效价格时 ok=false
func (idx *Index) Stats(category string) (PriceStats, bool) {
	s, ok := idx.stats[category]
	return s, ok
}
