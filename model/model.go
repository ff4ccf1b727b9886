package model

// Estimator 是所有可持久化模型的最小抽象。
// 具体实现：RandomForest（回归/分类）、GradientBoosting、LRModel。
type Estimator interface {
	// Algorithm 返回算法名，同时作为产物里的 provenance 标签
	Algorithm() string
	// Validate 检查反序列化后的结构是否完整可用
	Validate() error
}

// Regressor 输出一个连续值（价格、日需求、排名）。
type Regressor interface {
	Estimator
	Predict(x []float64) float64
}

// Classifier 输出正类概率，范围 [0, 1]。
type Classifier interface {
	Estimator
	PredictProba(x []float64) float64
}

// TreeEnsemble 由多棵树组成的模型，暴露单棵树的预测，用于估计预测离散度。
type TreeEnsemble interface {
	TreePredictions(x []float64, limit int) []float64
}

// 算法名（与产物中的 algorithm 字段一致）
const (
	AlgoRandomForest           = "RandomForest"
	AlgoRandomForestClassifier = "RandomForestClassifier"
	AlgoGradientBoosting       = "GradientBoosting"
	AlgoLogisticRegression     = "LogisticRegression"
)
