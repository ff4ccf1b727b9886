package predict

import (
	"fmt"
	"math"

	"github.com/rushteam/shopsense/core"
)

// 启发式公式。所有输入先经过缺失值默认（rating=4.0, reviews=100, rank=5000）。

func heuristicPrice(p core.Product) float64 {
	rating := p.RatingOr(core.DefaultRating)
	reviews := float64(p.ReviewsOr(core.DefaultReviews))
	rank := float64(p.RankOr(core.DefaultRank))

	ratingFactor := rating / 5
	popularityFactor := math.Min(1.5, 1+math.Log10(reviews+1)/5)
	rankFactor := math.Max(0.5, 1-math.Log10(rank+1)/10)
	return 50 * ratingFactor * popularityFactor * rankFactor
}

func heuristicDailyDemand(p core.Product) float64 {
	rating := p.RatingOr(core.DefaultRating)
	reviews := float64(p.ReviewsOr(core.DefaultReviews))
	rank := float64(p.RankOr(core.DefaultRank))
	return math.Max(0.1, 10*(rating/5)*math.Log10(reviews+1)/math.Log10(rank+1))
}

func heuristicBestsellerScore(p core.Product) float64 {
	rating := p.RatingOr(core.DefaultRating)
	reviews := float64(p.ReviewsOr(core.DefaultReviews))
	rank := float64(p.RankOr(core.DefaultRank))
	score := 0.3*(rating/5) + 0.4*math.Min(1, reviews/1000) + 0.3*math.Max(0, 1-rank/10000)
	return clamp01(score)
}

// heuristicRank 评分与评论缺失时按 0 计，此时排名保持不变。
func heuristicRank(p core.Product, current int) int {
	rating := p.Rating
	if rating < 0 {
		rating = 0
	}
	reviews := float64(p.ReviewCount)
	if reviews < 0 {
		reviews = 0
	}
	score := rating * math.Log1p(reviews) / math.Log1p(float64(current))

	predicted := current
	switch {
	case score > 10:
		predicted = int(float64(current) * 0.5)
	case score > 5:
		predicted = int(float64(current) * 0.7)
	}
	if predicted < 1 {
		predicted = 1
	}
	return predicted
}

// bestsellerFactors 与模型无关的解释项，启发式分支同样输出。
func bestsellerFactors(p core.Product) []string {
	factors := make([]string, 0, 3)

	rating := p.RatingOr(0)
	switch {
	case rating >= 4.7:
		factors = append(factors, fmt.Sprintf("Excellent rating (%.1f/5)", rating))
	case rating >= 4.5:
		factors = append(factors, fmt.Sprintf("Very good rating (%.1f/5)", rating))
	}

	reviews := p.ReviewsOr(0)
	switch {
	case reviews >= 500:
		factors = append(factors, fmt.Sprintf("Very popular (%d reviews)", reviews))
	case reviews >= 100:
		factors = append(factors, fmt.Sprintf("Popular (%d reviews)", reviews))
	}

	rank := p.RankOr(core.UnrankedRank)
	switch {
	case rank <= 100:
		factors = append(factors, "Excellent ranking")
	case rank <= 500:
		factors = append(factors, "Promising position")
	}
	return factors
}

func confidenceLevel(p float64) string {
	switch {
	case p >= 0.7:
		return LevelHigh
	case p >= 0.4:
		return LevelMedium
	default:
		return LevelLow
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
