package predict

import (
	"context"
	"math"
	"time"

	"github.com/rushteam/shopsense/core"
)

// PredictRank 预测排名走势。排名数值越小越好，预测值至少为 1。
func (s *Service) PredictRank(ctx context.Context, p core.Product) (res RankResult) {
	defer s.finish("rank", time.Now(), &res.Base)

	p = s.enrich(ctx, p)
	snap := s.snapshot()
	current := p.RankOr(core.DefaultRank)

	predicted, confidence, used := 0, 0.0, ""
	if tm, ok := snap.Rank.Get(); ok {
		reg, isReg := tm.Regressor()
		x, err := features(snap, tm, p)
		if err == nil && isReg {
			if v := reg.Predict(x); finite(v) {
				predicted = int(math.Max(1, v))
				confidence, used = 0.75, tm.Algorithm
			}
		}
		if used == "" {
			s.fallbackReason("rank", p, err)
		}
	}
	if used == "" {
		predicted = heuristicRank(p, current)
		confidence, used = 0.5, ModelHeuristic
	}

	res = RankResult{ProductID: p.ID, CurrentRank: current, PredictedRank: predicted}
	res.Success = true
	res.Confidence = confidence
	res.ModelUsed = used
	switch {
	case float64(predicted) < float64(current)*0.8:
		res.Trend = TrendUp
		res.Recommendation = "Strong potential to improve ranking"
	case float64(predicted) > float64(current)*1.2:
		res.Trend = TrendDown
		res.Recommendation = "Risk of decline, optimize price and visibility"
	default:
		res.Trend = TrendStable
		res.Recommendation = "Stable position expected"
	}
	return res
}
