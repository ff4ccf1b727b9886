package model

import (
	"errors"
	"fmt"
)

// GBDTParams 梯度提升树参数
type GBDTParams struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	LearningRate    float64
}

// GradientBoosting 最小二乘损失的梯度提升回归树：
// F(x) = Init + LearningRate · Σ tree_m(x)
type GradientBoosting struct {
	Init         float64         `json:"init"`
	LearningRate float64         `json:"learning_rate"`
	Trees        []*DecisionTree `json:"trees"`
}

// FitGradientBoosting 逐轮拟合残差。不做行/列采样，结果是确定的。
func FitGradientBoosting(X [][]float64, y []float64, p GBDTParams) (*GradientBoosting, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("gbdt: invalid training set (%d rows, %d labels)", len(X), len(y))
	}
	if p.NEstimators <= 0 {
		p.NEstimators = 100
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.1
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 3
	}

	var init float64
	for _, v := range y {
		init += v
	}
	init /= float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = init
	}
	residual := make([]float64, len(y))

	m := &GradientBoosting{Init: init, LearningRate: p.LearningRate, Trees: make([]*DecisionTree, 0, p.NEstimators)}
	for s := 0; s < p.NEstimators; s++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := FitTree(X, residual, nil, TreeParams{MaxDepth: p.MaxDepth, MinSamplesSplit: p.MinSamplesSplit}, nil)
		for i := range pred {
			pred[i] += p.LearningRate * tree.Predict(X[i])
		}
		m.Trees = append(m.Trees, tree)
	}
	return m, nil
}

func (m *GradientBoosting) Algorithm() string { return AlgoGradientBoosting }

func (m *GradientBoosting) Validate() error {
	if len(m.Trees) == 0 {
		return errors.New("gbdt has no trees")
	}
	for i, t := range m.Trees {
		if t == nil {
			return fmt.Errorf("stage %d is nil", i)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

func (m *GradientBoosting) Predict(x []float64) float64 {
	out := m.Init
	for _, t := range m.Trees {
		out += m.LearningRate * t.Predict(x)
	}
	return out
}

var _ Regressor = (*GradientBoosting)(nil)
