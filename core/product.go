package core

import (
	"math"
	"strings"
)

// 缺失值默认值。Product 中数值字段为 0 即视为缺失（与上游目录数据的约定一致）。
const (
	DefaultRating  = 4.0
	DefaultReviews = 100
	DefaultRank    = 5000
	DefaultPrice   = 100.0

	// UnrankedRank 是推荐/排序场景下"无排名"的哨兵值。
	UnrankedRank = 99999

	UnknownCategory = "Unknown"
)

// Product 是整个预测与推荐链路的统一输入：一条商品目录记录。
// 由外部目录/数据库持有，本模块只读不写。
type Product struct {
	ID          string             `json:"id"`
	Title       string             `json:"title,omitempty"`
	Price       float64            `json:"price,omitempty"`
	Rating      float64            `json:"rating,omitempty"`
	ReviewCount int                `json:"review_count,omitempty"`
	Rank        int                `json:"rank,omitempty"`
	Stock       int                `json:"stock,omitempty"`
	Category    string             `json:"category,omitempty"`
	Extra       map[string]float64 `json:"extra,omitempty"`
}

// RatingOr 返回评分；缺失或非有限值（NaN/Inf）时返回 def。
func (p Product) RatingOr(def float64) float64 {
	if absent(p.Rating) {
		return def
	}
	return p.Rating
}

// ReviewsOr 返回评论数；缺失时返回 def。
func (p Product) ReviewsOr(def int) int {
	if p.ReviewCount <= 0 {
		return def
	}
	return p.ReviewCount
}

// RankOr 返回排名；缺失时返回 def。
func (p Product) RankOr(def int) int {
	if p.Rank <= 0 {
		return def
	}
	return p.Rank
}

// PriceOr 返回价格；缺失或非有限值（NaN/Inf）时返回 def。
func (p Product) PriceOr(def float64) float64 {
	if absent(p.Price) {
		return def
	}
	return p.Price
}

func absent(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v <= 0
}

// CategoryOrUnknown 返回类目，空类目归一为 UnknownCategory。
func (p Product) CategoryOrUnknown() string {
	if c := strings.TrimSpace(p.Category); c != "" {
		return c
	}
	return UnknownCategory
}

// ShortTitle 截断标题，用于推荐结果展示。
func (p Product) ShortTitle(n int) string {
	r := []rune(p.Title)
	if len(r) <= n {
		return p.Title
	}
	return string(r[:n])
}
