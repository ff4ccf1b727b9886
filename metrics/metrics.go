// Package metrics 定义 shopsense 的 Prometheus 指标（promauto 注册到默认 Registry）。
//
// 指标分类：
//   - 预测：按预测器与来源（trained/heuristic/error）计数，延迟直方图
//   - 模型存储：重载次数（按结果），已加载模型数
//   - 训练：按模型与结果计数
//   - 推荐：目录规模
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 预测来源标签
const (
	SourceTrained   = "trained"
	SourceHeuristic = "heuristic"
	SourceError     = "error"
)

var (
	// PredictionsTotal 预测次数
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsense_predictions_total",
			Help: "Total number of predictions by predictor and source",
		},
		[]string{"predictor", "source"},
	)

	// PredictionDuration 预测耗时
	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopsense_prediction_duration_seconds",
			Help:    "Duration of single predictions in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"predictor"},
	)

	// ReloadsTotal 模型重载次数
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsense_model_reloads_total",
			Help: "Total number of model store loads by outcome",
		},
		[]string{"outcome"},
	)

	// ModelsLoaded 当前已加载的预测模型数（0-4）
	ModelsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shopsense_models_loaded",
			Help: "Number of predictive models currently loaded",
		},
	)

	// TrainingRunsTotal 训练次数
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsense_training_runs_total",
			Help: "Total number of model training runs by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	// CatalogProducts 推荐引擎当前索引的商品数
	CatalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shopsense_catalog_products",
			Help: "Number of products in the active recommendation index",
		},
	)
)

// RecordPrediction 记录一次预测
func RecordPrediction(predictor, source string, d time.Duration) {
	PredictionsTotal.WithLabelValues(predictor, source).Inc()
	PredictionDuration.WithLabelValues(predictor).Observe(d.Seconds())
}

// RecordReload 记录一次加载/重载
func RecordReload(ok bool, modelsLoaded int) {
	outcome := "success"
	if !ok {
		outcome = "partial"
	}
	ReloadsTotal.WithLabelValues(outcome).Inc()
	ModelsLoaded.Set(float64(modelsLoaded))
}

// RecordTraining 记录一个模型的训练结果
func RecordTraining(model string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	TrainingRunsTotal.WithLabelValues(model, outcome).Inc()
}
