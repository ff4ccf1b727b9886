package predict

import (
	"context"
	"math"
	"time"

	"github.com/rushteam/shopsense/core"
)

// PredictBestseller 预测商品成为爆款的概率，概率始终在 [0, 1]。
func (s *Service) PredictBestseller(ctx context.Context, p core.Product) (res BestsellerResult) {
	defer s.finish("bestseller", time.Now(), &res.Base)

	p = s.enrich(ctx, p)
	snap := s.snapshot()
	factors := bestsellerFactors(p)

	if tm, ok := snap.Bestseller.Get(); ok {
		clf, isClf := tm.Classifier()
		x, err := features(snap, tm, p)
		if err == nil && isClf {
			if prob := clf.PredictProba(x); finite(prob) {
				prob = clamp01(prob)
				res = bestsellerResult(prob, prob >= 0.5, factors)
				res.ModelUsed = tm.Algorithm
				return res
			}
		}
		s.fallbackReason("bestseller", p, err)
	}

	score := heuristicBestsellerScore(p)
	if !finite(score) {
		return BestsellerResult{Base: unrecoverable("bestseller", score), Factors: factors}
	}
	res = bestsellerResult(score, score >= 0.6, factors)
	res.ModelUsed = ModelHeuristic
	return res
}

func bestsellerResult(prob float64, is bool, factors []string) BestsellerResult {
	res := BestsellerResult{
		IsBestseller:    is,
		Probability:     prob,
		ConfidenceLevel: confidenceLevel(prob),
		Factors:         factors,
	}
	res.Success = true
	res.Confidence = math.Max(prob, 1-prob)
	switch res.ConfidenceLevel {
	case LevelHigh:
		res.Recommendation = "Strong bestseller potential! Increase stock and visibility"
	case LevelMedium:
		res.Recommendation = "Moderate potential. Optimize price and reviews"
	default:
		res.Recommendation = "Low potential. Review the product strategy"
	}
	return res
}
