package predict

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/rushteam/shopsense/core"
)

const (
	// DefaultDemandDays 默认预测天数
	DefaultDemandDays = 30
	// MaxDemandDays 预测天数上限，超出按上限计
	MaxDemandDays = 365
	// forecastDays 逐日预测最多展开的天数
	forecastDays = 7
	// noDemandDays 日需求为 0 时的库存天数
	noDemandDays = 999
)

// PredictDemand 预测 days 天的需求、库存可支撑天数与补货紧急程度。
// 逐日预测中的噪声以商品 id 和当天日期为种子，同一天内重复调用结果一致；
// 总需求与日均需求不含噪声。
func (s *Service) PredictDemand(ctx context.Context, p core.Product, days int) (res DemandResult) {
	defer s.finish("demand", time.Now(), &res.Base)

	if days <= 0 {
		days = DefaultDemandDays
	}
	days = min(days, MaxDemandDays)
	p = s.enrich(ctx, p)
	snap := s.snapshot()

	if tm, ok := snap.Demand.Get(); ok {
		reg, isReg := tm.Regressor()
		x, err := features(snap, tm, p)
		if err == nil && isReg {
			if base := reg.Predict(x); finite(base) {
				res = s.demandResult(p, base, days)
				res.ModelUsed = tm.Algorithm
				res.Confidence = 0.82
				return res
			}
		}
		s.fallbackReason("demand", p, err)
	}

	base := heuristicDailyDemand(p)
	if !finite(base) {
		return DemandResult{Base: unrecoverable("demand", base), Days: days}
	}
	res = s.demandResult(p, base, days)
	res.ModelUsed = ModelHeuristic
	res.Confidence = 0.5
	return res
}

func (s *Service) demandResult(p core.Product, base float64, days int) DemandResult {
	now := s.now()
	stock := p.Stock
	if stock < 0 {
		stock = 0
	}

	res := DemandResult{
		Days:            days,
		PredictedDemand: base * float64(days),
		DailyAverage:    base,
		DailyForecast:   forecast(p.ID, base, days, now),
		Trend:           "stable",
		CurrentStock:    stock,
	}
	res.Success = true
	if base > 1 {
		res.Trend = "up"
	}

	res.DaysOfStock = noDemandDays
	if base > 0 {
		res.DaysOfStock = float64(stock) / base
	}

	switch {
	case res.DaysOfStock < 7:
		res.Urgency = UrgencyHigh
		res.RestockQuantity = clampInt(res.PredictedDemand - float64(stock))
		res.Recommendation = fmt.Sprintf("Critical stock! Restock %d units", res.RestockQuantity)
	case res.DaysOfStock < 14:
		res.Urgency = UrgencyMedium
		res.Recommendation = fmt.Sprintf("Restock soon. Stock covers %d days", clampInt(res.DaysOfStock))
	default:
		res.Urgency = UrgencyLow
		res.Recommendation = fmt.Sprintf("Stock sufficient for %d days", clampInt(res.DaysOfStock))
	}
	return res
}

// forecast 逐日展开 min(days, 7) 天的需求，周末按 0.8 折减。
func forecast(productID string, base float64, days int, start time.Time) []DayForecast {
	n := days
	if n > forecastDays {
		n = forecastDays
	}
	rng := rand.New(rand.NewSource(forecastSeed(productID, start)))

	out := make([]DayForecast, 0, n)
	var cumulative float64
	for day := 0; day < n; day++ {
		date := start.AddDate(0, 0, day)
		weekday := 1.0
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekday = 0.8
		}
		trend := 1 + float64(day)*0.001
		noise := 1 + rng.NormFloat64()*0.05

		demand := math.Max(0, base*weekday*trend*noise)
		cumulative += demand
		out = append(out, DayForecast{
			Date:       date.Format("2006-01-02"),
			Demand:     demand,
			Cumulative: cumulative,
		})
	}
	return out
}

func forecastSeed(productID string, day time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(productID))
	_, _ = h.Write([]byte(day.Format("2006-01-02")))
	return int64(h.Sum64())
}

// clampInt 截断到 [0, MaxInt32] 后转 int，避免超大浮点转换溢出。
func clampInt(v float64) int {
	if !(v > 0) {
		return 0
	}
	return int(math.Min(v, math.MaxInt32))
}
