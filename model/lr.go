package model

import (
	"errors"
	"fmt"
	"math"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 输出 P 为正类概率，范围 (0, 1)。输入特征应先标准化（产物里带 scaler）。
type LRModel struct {
	Bias    float64   `json:"bias"`    // 偏置项 (Bias / Intercept)
	Weights []float64 `json:"weights"` // 特征权重 (Weights / Coefficients)
}

// LRParams 逻辑回归训练参数
type LRParams struct {
	Iterations   int
	LearningRate float64
	L2           float64

	// BalancedClassWeight 类权重 n/(2·n_c)
	BalancedClassWeight bool
}

// FitLR 使用批量梯度下降训练加权逻辑回归。
func FitLR(X [][]float64, y []float64, p LRParams) (*LRModel, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("lr: invalid training set (%d rows, %d labels)", len(X), len(y))
	}
	if p.Iterations <= 0 {
		p.Iterations = 500
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.1
	}

	classWeight := [2]float64{1, 1}
	if p.BalancedClassWeight {
		classWeight = balancedWeights(y)
	}

	width := len(X[0])
	m := &LRModel{Weights: make([]float64, width)}
	grad := make([]float64, width)
	var totalW float64
	for _, v := range y {
		totalW += classWeight[label(v)]
	}

	for it := 0; it < p.Iterations; it++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64
		for i, row := range X {
			w := classWeight[label(y[i])]
			diff := w * (m.PredictProba(row) - y[i])
			gradBias += diff
			for j, v := range row {
				grad[j] += diff * v
			}
		}
		m.Bias -= p.LearningRate * gradBias / totalW
		for j := range m.Weights {
			m.Weights[j] -= p.LearningRate * (grad[j]/totalW + p.L2*m.Weights[j])
		}
	}
	return m, nil
}

func (m *LRModel) Algorithm() string { return AlgoLogisticRegression }

func (m *LRModel) Validate() error {
	if len(m.Weights) == 0 {
		return errors.New("lr has no weights")
	}
	return nil
}

func (m *LRModel) PredictProba(x []float64) float64 {
	score := m.Bias
	for j, v := range x {
		if j < len(m.Weights) {
			score += m.Weights[j] * v
		}
	}
	return 1 / (1 + math.Exp(-score))
}

var _ Classifier = (*LRModel)(nil)
