package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestParams 随机森林训练参数
type ForestParams struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // <=0：回归用全部特征，分类用 sqrt(特征数)
	Seed            int64

	// BalancedClassWeight 仅分类有效：类权重 n/(2·n_c)，缓解正负样本不均衡
	BalancedClassWeight bool
}

// RandomForest 随机森林（bootstrap + 特征子采样）。
// Classifier 为 true 时输出正类概率（各树叶子概率取平均）。
type RandomForest struct {
	Classifier bool            `json:"classifier"`
	Trees      []*DecisionTree `json:"trees"`
}

// FitRandomForest 训练随机森林。第 i 棵树使用种子 Seed+i，
// 结果与并发调度无关，同样的输入和种子得到同样的模型。
func FitRandomForest(ctx context.Context, X [][]float64, y []float64, p ForestParams, classifier bool) (*RandomForest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("forest: invalid training set (%d rows, %d labels)", len(X), len(y))
	}
	if p.NEstimators <= 0 {
		p.NEstimators = 100
	}
	nFeatures := len(X[0])
	maxFeatures := p.MaxFeatures
	if maxFeatures <= 0 && classifier {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(nFeatures)))))
	}

	classWeight := [2]float64{1, 1}
	if classifier && p.BalancedClassWeight {
		classWeight = balancedWeights(y)
	}

	trees := make([]*DecisionTree, p.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := 0; t < p.NEstimators; t++ {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(p.Seed + int64(t)))
			w := make([]float64, len(y))
			for range y {
				w[rng.Intn(len(y))]++
			}
			if classifier {
				for i := range w {
					w[i] *= classWeight[label(y[i])]
				}
			}
			trees[t] = FitTree(X, y, w, TreeParams{
				MaxDepth:        p.MaxDepth,
				MinSamplesSplit: p.MinSamplesSplit,
				MaxFeatures:     maxFeatures,
			}, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &RandomForest{Classifier: classifier, Trees: trees}, nil
}

func label(v float64) int {
	if v > 0.5 {
		return 1
	}
	return 0
}

func balancedWeights(y []float64) [2]float64 {
	var counts [2]float64
	for _, v := range y {
		counts[label(v)]++
	}
	n := float64(len(y))
	w := [2]float64{1, 1}
	for c := range counts {
		if counts[c] > 0 {
			w[c] = n / (2 * counts[c])
		}
	}
	return w
}

func (f *RandomForest) Algorithm() string {
	if f.Classifier {
		return AlgoRandomForestClassifier
	}
	return AlgoRandomForest
}

func (f *RandomForest) Validate() error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i, t := range f.Trees {
		if t == nil {
			return fmt.Errorf("tree %d is nil", i)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (f *RandomForest) average(x []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict 回归输出（各树均值）
func (f *RandomForest) Predict(x []float64) float64 {
	return f.average(x)
}

// PredictProba 正类概率，裁剪到 [0, 1]
func (f *RandomForest) PredictProba(x []float64) float64 {
	return math.Min(1, math.Max(0, f.average(x)))
}

// TreePredictions 返回前 limit 棵树的预测（limit<=0 为全部）
func (f *RandomForest) TreePredictions(x []float64, limit int) []float64 {
	n := len(f.Trees)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = f.Trees[i].Predict(x)
	}
	return out
}

var (
	_ Regressor    = (*RandomForest)(nil)
	_ Classifier   = (*RandomForest)(nil)
	_ TreeEnsemble = (*RandomForest)(nil)
)
