package predict

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/modelstore"
)

// 相似商品检索方式
const (
	SimilarityEmbedding = "embedding"
	SimilarityFeatures  = "feature_based"
)

// SimilarProduct 相似商品及其得分
type SimilarProduct struct {
	Product core.Product `json:"product"`
	Score   float64      `json:"similarity_score"`
}

// SimilarResult 相似商品检索结果
type SimilarResult struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Source  core.Product     `json:"source_product"`
	Items   []SimilarProduct `json:"similar_products"`
	Method  string           `json:"similarity_method,omitempty"`
}

// SearchHit 关键词检索命中
type SearchHit struct {
	Product  core.Product `json:"product"`
	Position int          `json:"rank_position"`
}

// SearchResult 关键词检索结果
type SearchResult struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Query   string      `json:"query"`
	Hits    []SearchHit `json:"results"`
}

// Analysis 单个商品的综合分析
type Analysis struct {
	Product         core.Product     `json:"product"`
	Timestamp       time.Time        `json:"analysis_timestamp"`
	Price           PriceResult      `json:"price_analysis"`
	Demand          DemandResult     `json:"demand_forecast"`
	Bestseller      BestsellerResult `json:"bestseller_prediction"`
	Rank            RankResult       `json:"rank_prediction"`
	Similar         *SimilarResult   `json:"similar_products,omitempty"`
	Recommendations []string         `json:"recommendations"`
}

// Analyze 运行全部四个预测器，商品带 id 时附带相似商品，并汇总各预测器的建议。
func (s *Service) Analyze(ctx context.Context, p core.Product) Analysis {
	p = s.enrich(ctx, p)
	// 已补全过，各预测器不再重复请求在线特征
	inner := *s
	inner.enricher = nil
	a := Analysis{
		Product:    p,
		Timestamp:  s.now(),
		Price:      inner.PredictPrice(ctx, p),
		Demand:     inner.PredictDemand(ctx, p, DefaultDemandDays),
		Bestseller: inner.PredictBestseller(ctx, p),
		Rank:       inner.PredictRank(ctx, p),
	}
	if p.ID != "" {
		similar := s.FindSimilar(ctx, p.ID, 5)
		a.Similar = &similar
	}
	for _, rec := range []string{a.Price.Recommendation, a.Demand.Recommendation, a.Bestseller.Recommendation, a.Rank.Recommendation} {
		if rec != "" {
			a.Recommendations = append(a.Recommendations, rec)
		}
	}
	return a
}

// FindSimilar 查找与 id 相似的 k 个商品。
// 优先使用相似度索引（余弦），索引缺失或不含该商品时按特征打分：
// 0.3·价格接近度 + 0.3·评分接近度 + 0.4·同类目。
func (s *Service) FindSimilar(ctx context.Context, id string, k int) (res SimilarResult) {
	defer func() {
		if r := recover(); r != nil {
			res = SimilarResult{Error: fmt.Sprintf("find similar failed: %v", r)}
		}
	}()
	if k <= 0 {
		k = 5
	}
	snap := s.snapshot()
	if len(snap.Catalog) == 0 {
		return SimilarResult{Error: "catalog not loaded"}
	}
	source, ok := snap.FindProduct(id)
	if !ok {
		return SimilarResult{Error: fmt.Sprintf("product %q not found", id)}
	}

	if items, ok := similarByEmbedding(snap, id, k); ok {
		return SimilarResult{Success: true, Source: source, Items: items, Method: SimilarityEmbedding}
	}
	return SimilarResult{Success: true, Source: source, Items: similarByFeatures(snap.Catalog, source, k), Method: SimilarityFeatures}
}

func similarByEmbedding(snap *modelstore.Snapshot, id string, k int) ([]SimilarProduct, bool) {
	if snap.Similarity == nil {
		return nil, false
	}
	// 多取一些，过滤掉目录快照中已经不存在的商品
	neighbors, ok := snap.Similarity.Nearest(id, k*2)
	if !ok {
		return nil, false
	}
	byID := make(map[string]core.Product, len(snap.Catalog))
	for _, p := range snap.Catalog {
		byID[p.ID] = p
	}
	items := make([]SimilarProduct, 0, k)
	for _, n := range neighbors {
		p, ok := byID[n.ID]
		if !ok {
			continue
		}
		items = append(items, SimilarProduct{Product: p, Score: n.Score})
		if len(items) == k {
			break
		}
	}
	return items, true
}

func similarByFeatures(catalog []core.Product, source core.Product, k int) []SimilarProduct {
	items := make([]SimilarProduct, 0, len(catalog))
	for _, c := range catalog {
		if c.ID == source.ID {
			continue
		}
		priceScore := 0.5
		if source.Price > 0 {
			priceScore = 1 - math.Abs(c.Price-source.Price)/(source.Price+1)
		}
		ratingScore := 1 - math.Abs(c.Rating-source.Rating)/5
		categoryScore := 0.0
		if c.Category == source.Category {
			categoryScore = 1
		}
		items = append(items, SimilarProduct{
			Product: c,
			Score:   0.3*priceScore + 0.3*ratingScore + 0.4*categoryScore,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if len(items) > k {
		items = items[:k]
	}
	return items
}

// Search 在目录快照的标题中做不区分大小写的关键词匹配，按目录顺序返回前 k 个。
func (s *Service) Search(query string, k int) SearchResult {
	if k <= 0 {
		k = 10
	}
	snap := s.snapshot()
	if len(snap.Catalog) == 0 {
		return SearchResult{Query: query, Error: "catalog not loaded"}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	res := SearchResult{Success: true, Query: query, Hits: []SearchHit{}}
	for _, p := range snap.Catalog {
		if !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		res.Hits = append(res.Hits, SearchHit{Product: p, Position: len(res.Hits) + 1})
		if len(res.Hits) == k {
			break
		}
	}
	return res
}
