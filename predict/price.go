package predict

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/model"
)

// 用于估计离散度的树数量
const priceDispersionTrees = 10

// PredictPrice 预测商品的合理价格，并与当前标价比较。
func (s *Service) PredictPrice(ctx context.Context, p core.Product) (res PriceResult) {
	defer s.finish("price", time.Now(), &res.Base)

	p = s.enrich(ctx, p)
	snap := s.snapshot()

	if tm, ok := snap.Price.Get(); ok {
		reg, isReg := tm.Regressor()
		x, err := features(snap, tm, p)
		if err == nil && isReg {
			pred := reg.Predict(x)
			if finite(pred) {
				res = PriceResult{PredictedPrice: pred, CurrentPrice: p.Price}
				res.Success = true
				res.ModelUsed = tm.Algorithm
				res.Confidence = 0.85
				res.Range = PriceRange{Min: pred * 0.9, Max: pred * 1.1}

				if ens, ok := tm.Estimator.(model.TreeEnsemble); ok {
					if std := stddev(ens.TreePredictions(x, priceDispersionTrees)); std > 0 {
						res.Confidence = math.Max(0.5, 1-std/math.Max(pred, 1))
						res.Range = PriceRange{Min: math.Max(0, pred-2*std), Max: pred + 2*std}
					}
				}
				res.Recommendation = priceRecommendation(p.Price, pred)
				return res
			}
		}
		s.fallbackReason("price", p, err)
	}

	pred := heuristicPrice(p)
	if !finite(pred) {
		return PriceResult{Base: unrecoverable("price", pred)}
	}
	res = PriceResult{PredictedPrice: pred, CurrentPrice: p.Price, Range: PriceRange{Min: pred * 0.8, Max: pred * 1.2}}
	res.Success = true
	res.ModelUsed = ModelHeuristic
	res.Confidence = 0.6
	res.Recommendation = "Heuristic estimate (no trained price model available)"
	return res
}

// priceRecommendation 偏差超过 10% 才建议调价
func priceRecommendation(current, predicted float64) string {
	if current <= 0 {
		return fmt.Sprintf("Suggested price: %.2f", predicted)
	}
	diff := (predicted - current) / current * 100
	switch {
	case diff > 10:
		return fmt.Sprintf("Current price is %.1f%% below the predicted value. Increase the price.", diff)
	case diff < -10:
		return fmt.Sprintf("Current price is %.1f%% above the predicted value. Decrease the price.", -diff)
	default:
		return "Current price is optimal."
	}
}

// stddev 总体标准差
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
