package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/pkg/utils"
)

// 推荐理由来源
const (
	SourceSimilar   = "similar"
	SourceUpsell    = "upsell"
	SourceCrosssell = "crosssell"
	SourceTrending  = "trending"
	SourceDeals     = "deals"
	SourceCategory  = "category"
)

// SortBy 类目推荐的排序方式
type SortBy string

const (
	SortByRating SortBy = "rating"
	SortByPrice  SortBy = "price"
	SortByRank   SortBy = "rank"
)

// SimilarOption 相似推荐选项
type SimilarOption func(*similarOptions)

type similarOptions struct {
	sameCategory bool
}

// AllCategories 在全目录中找相似商品
func AllCategories() SimilarOption {
	return func(o *similarOptions) { o.sameCategory = false }
}

// Similar 相似商品。距离越小越相似，Score = 1 - 距离。
func (e *Engine) Similar(id string, limit int, opts ...SimilarOption) ([]Recommendation, error) {
	o := similarOptions{sameCategory: true}
	for _, opt := range opts {
		opt(&o)
	}
	idx := e.Current()
	src, err := e.lookup(idx, id)
	if err != nil {
		return nil, err
	}
	return e.similar(idx, src, limit, o), nil
}

func (e *Engine) similar(idx *Index, src core.Product, limit int, o similarOptions) []Recommendation {
	cat := src.CategoryOrUnknown()
	pool := idx.Products()
	if o.sameCategory {
		if items := idx.CategoryProducts(cat); len(items) > 0 {
			pool = items
		}
	}

	type scored struct {
		p    core.Product
		dist float64
	}
	cands := make([]scored, 0, len(pool))
	for _, p := range pool {
		if p.ID == src.ID || !e.keep(p, &src) {
			continue
		}
		// 评分差按 5 分制归一：每差 1 分距离 +0.06
		dist := 0.4*math.Abs(p.Price-src.Price)/math.Max(src.Price, 1) +
			0.3*math.Abs(p.Rating-src.Rating)/5
		if p.CategoryOrUnknown() == cat {
			dist -= 0.2
		}
		if p.Rating >= 4 {
			dist -= 0.1
		}
		cands = append(cands, scored{p: p, dist: dist})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

	limit = limitOr(limit, DefaultSimilarLimit)
	out := make([]Recommendation, 0, min(limit, len(cands)))
	for _, c := range cands {
		if len(out) == limit {
			break
		}
		r := newRecommendation(c.p, round(1-c.dist, 3))
		r.Reason = similarReason(src, c.p)
		out = append(out, r)
	}
	return out
}

func similarReason(src, p core.Product) utils.Label {
	var values []string
	if src.CategoryOrUnknown() == p.CategoryOrUnknown() {
		values = append(values, "same category")
	}
	if math.Abs(p.Price-src.Price) < 0.2*src.Price {
		values = append(values, "similar price")
	}
	if math.Abs(p.Rating-src.Rating) < 0.5 {
		values = append(values, "comparable rating")
	}
	if len(values) == 0 {
		values = append(values, "alternative product")
	}
	return reason(SourceSimilar, values...)
}

// Upsell 同类目更高价位、评分或排名更好的商品，按性价比降序。
func (e *Engine) Upsell(id string, limit int) ([]Recommendation, error) {
	idx := e.Current()
	src, err := e.lookup(idx, id)
	if err != nil {
		return nil, err
	}
	return e.upsell(idx, src, limit), nil
}

func (e *Engine) upsell(idx *Index, src core.Product, limit int) []Recommendation {
	pool := idx.CategoryProducts(src.CategoryOrUnknown())
	if len(pool) == 0 {
		pool = idx.Products()
	}
	srcRank := src.RankOr(core.UnrankedRank)

	var out []Recommendation
	for _, p := range pool {
		if p.ID == src.ID {
			continue
		}
		if p.Price <= 1.2*src.Price || p.Price >= 3*src.Price {
			continue
		}
		if p.Rating < src.Rating && p.RankOr(core.UnrankedRank) >= srcRank {
			continue
		}
		if !e.keep(p, &src) {
			continue
		}
		value := (p.Rating / math.Max(src.Rating, 1)) * (src.Price / math.Max(p.Price, 1))
		r := newRecommendation(p, round(value, 3))
		r.PriceIncreasePercent = round((p.Price/src.Price-1)*100, 1)
		r.Reason = upsellReason(src, p)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return truncate(out, limitOr(limit, DefaultUpsellLimit))
}

func upsellReason(src, p core.Product) utils.Label {
	var values []string
	if p.Rating > src.Rating {
		values = append(values, fmt.Sprintf("better rating (%.1f vs %.1f)", p.Rating, src.Rating))
	}
	if p.RankOr(core.UnrankedRank) < src.RankOr(core.UnrankedRank) {
		values = append(values, "better ranking")
	}
	if float64(p.ReviewCount) > 1.5*float64(src.ReviewCount) {
		values = append(values, "more popular")
	}
	if len(values) == 0 {
		values = append(values, "premium upgrade")
	}
	return reason(SourceUpsell, values...)
}

// 交叉推荐：每个互补类目最多看前 maxPerCategory 个商品
const (
	maxPerCategory     = 20
	crosssellPriceBand = 1.5
	crosssellMinRating = 3.5
)

// Crosssell 互补类目中价格不高于 1.5 倍、评分不低于 3.5 的商品，按评分降序。
func (e *Engine) Crosssell(id string, limit int) ([]Recommendation, error) {
	idx := e.Current()
	src, err := e.lookup(idx, id)
	if err != nil {
		return nil, err
	}
	return e.crosssell(idx, src, limit), nil
}

func (e *Engine) crosssell(idx *Index, src core.Product, limit int) []Recommendation {
	var out []Recommendation
	for _, cat := range e.complements.For(src.CategoryOrUnknown(), idx.Categories()) {
		items := idx.CategoryProducts(cat)
		if len(items) > maxPerCategory {
			items = items[:maxPerCategory]
		}
		for _, p := range items {
			if p.Price > crosssellPriceBand*src.Price || p.Rating < crosssellMinRating {
				continue
			}
			if !e.keep(p, &src) {
				continue
			}
			r := newRecommendation(p, p.Rating)
			r.Category = cat
			r.Reason = reason(SourceCrosssell, "completes your purchase in "+cat)
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return truncate(out, limitOr(limit, DefaultCrosssellLimit))
}

// TrendingScore 热度分：排名越靠前、评论越多、评分越高越热门。没有排名按 99999 计。
func TrendingScore(p core.Product) float64 {
	rank := float64(p.RankOr(core.UnrankedRank))
	return (1/math.Log1p(rank))*1000 + math.Log1p(float64(p.ReviewCount))*2 + p.Rating*5
}

// Trending 全目录热门商品
func (e *Engine) Trending(limit int) []Recommendation {
	idx := e.Current()
	out := make([]Recommendation, 0, idx.Len())
	for _, p := range idx.Products() {
		if !e.keep(p, nil) {
			continue
		}
		r := newRecommendation(p, round(TrendingScore(p), 2))
		r.Reason = reason(SourceTrending, "trending")
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return truncate(out, limitOr(limit, DefaultTrendingLimit))
}

// 折扣：价格低于类目中位数的 80%，评分不低于 4
const (
	dealPriceRatio = 0.8
	dealMinRating  = 4.0
)

// Deals 低于类目中位价的高评分商品，按折扣分降序
func (e *Engine) Deals(limit int) []Recommendation {
	idx := e.Current()
	var out []Recommendation
	for _, p := range idx.Products() {
		if p.Price <= 0 || p.Rating < dealMinRating {
			continue
		}
		stats, ok := idx.Stats(p.CategoryOrUnknown())
		if !ok || p.Price >= dealPriceRatio*stats.Median {
			continue
		}
		if !e.keep(p, nil) {
			continue
		}
		savings := round((1-p.Price/stats.Median)*100, 1)
		r := newRecommendation(p, savings*p.Rating/5)
		r.CategoryMedian = round(stats.Median, 2)
		r.SavingsPercent = savings
		r.Reason = reason(SourceDeals, fmt.Sprintf("%.1f%% below category median", savings))
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return truncate(out, limitOr(limit, DefaultDealsLimit))
}

// Category 类目内推荐。sortBy 为空或未知时按评分排序。
func (e *Engine) Category(category string, limit int, sortBy SortBy) []Recommendation {
	return e.category(e.Current(), category, limit, sortBy)
}

func (e *Engine) category(idx *Index, category string, limit int, sortBy SortBy) []Recommendation {
	items := idx.CategoryProducts(category)
	out := make([]Recommendation, 0, len(items))
	for _, p := range items {
		if !e.keep(p, nil) {
			continue
		}
		var score float64
		switch sortBy {
		case SortByPrice:
			score = p.Price
		case SortByRank:
			score = float64(p.RankOr(core.UnrankedRank))
		default:
			score = p.Rating
		}
		r := newRecommendation(p, score)
		r.Reason = reason(SourceCategory, "top in "+category)
		out = append(out, r)
	}
	switch sortBy {
	case SortByPrice, SortByRank:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	}
	return truncate(out, limitOr(limit, DefaultCategoryLimit))
}

// Comprehensive 单个商品的综合推荐：相似 5、升级 3、交叉 3、同类目排名前 5。
// 各部分都基于同一份目录快照计算。
func (e *Engine) Comprehensive(id string) (*Comprehensive, error) {
	return e.comprehensive(e.Current(), id)
}

func (e *Engine) comprehensive(idx *Index, id string) (*Comprehensive, error) {
	src, err := e.lookup(idx, id)
	if err != nil {
		return nil, err
	}
	return &Comprehensive{
		Product:            src,
		Similar:            e.similar(idx, src, 5, similarOptions{sameCategory: true}),
		Upsell:             e.upsell(idx, src, 3),
		Crosssell:          e.crosssell(idx, src, 3),
		TrendingInCategory: e.category(idx, src.CategoryOrUnknown(), 5, SortByRank),
	}, nil
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
