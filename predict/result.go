package predict

// ModelHeuristic 是启发式分支的 provenance 标签
const ModelHeuristic = "heuristic_fallback"

// 库存紧急程度
const (
	UrgencyHigh   = "HIGH"
	UrgencyMedium = "MEDIUM"
	UrgencyLow    = "LOW"
)

// 排名趋势
const (
	TrendUp     = "UP"
	TrendDown   = "DOWN"
	TrendStable = "STABLE"
)

// 置信度分档
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Base 是所有预测结果的公共部分。
// Success 只有在不可恢复的错误（如 panic、启发式也无法给出有限值）时为 false。
type Base struct {
	Success        bool    `json:"success"`
	Confidence     float64 `json:"confidence"`
	ModelUsed      string  `json:"model_used"`
	Recommendation string  `json:"recommendation,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// IsHeuristic 结果是否来自启发式分支
func (b Base) IsHeuristic() bool { return b.ModelUsed == ModelHeuristic }

// PriceRange 价格区间
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PriceResult 价格预测
type PriceResult struct {
	Base
	PredictedPrice float64    `json:"predicted_price"`
	CurrentPrice   float64    `json:"current_price,omitempty"`
	Range          PriceRange `json:"price_range"`
}

// DayForecast 单日需求预测
type DayForecast struct {
	Date       string  `json:"date"`
	Demand     float64 `json:"predicted_demand"`
	Cumulative float64 `json:"cumulative"`
}

// DemandResult 需求预测
type DemandResult struct {
	Base
	Days            int           `json:"days"`
	PredictedDemand float64       `json:"predicted_demand"` // days 天总需求
	DailyAverage    float64       `json:"predicted_demand_daily_avg"`
	DailyForecast   []DayForecast `json:"daily_forecast"`
	Trend           string        `json:"trend"`
	CurrentStock    int           `json:"current_stock"`
	DaysOfStock     float64       `json:"days_of_stock"`
	Urgency         string        `json:"urgency"`
	RestockQuantity int           `json:"restock_quantity,omitempty"`
}

// BestsellerResult 爆款预测
type BestsellerResult struct {
	Base
	IsBestseller    bool     `json:"is_bestseller"`
	Probability     float64  `json:"probability"`
	ConfidenceLevel string   `json:"confidence_level"`
	Factors         []string `json:"factors"`
}

// RankResult 排名预测
type RankResult struct {
	Base
	ProductID     string `json:"product_id,omitempty"`
	CurrentRank   int    `json:"current_rank"`
	PredictedRank int    `json:"predicted_rank"`
	Trend         string `json:"trend"`
}
