package feature

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler Z-score 标准化（Standardization）
// 公式: z = (x - μ) / σ，σ 为总体标准差；σ 为 0 的列按 1 处理。
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Width 返回拟合时的特征维度
func (s *StandardScaler) Width() int { return len(s.Mean) }

// Fit 按列计算均值与标准差
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("scaler: empty input")
	}
	width := len(X[0])
	mean := make([]float64, width)
	for _, row := range X {
		if len(row) != width {
			return fmt.Errorf("scaler: ragged input, want width %d got %d", width, len(row))
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, width)
	for _, row := range X {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	s.Mean, s.Scale = mean, scale
	return nil
}

// Transform 标准化单个向量
func (s *StandardScaler) Transform(x []float64) (Vector, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: expected %d features, got %d", len(s.Mean), len(x))
	}
	out := make(Vector, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// FitTransform 拟合并返回标准化后的矩阵
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		v, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
