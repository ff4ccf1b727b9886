package model

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
)

// 线性可分的回归数据：y = 10·x0 + x1
func regressionData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		x0, x1 := rng.Float64()*10, rng.Float64()
		X[i] = []float64{x0, x1}
		y[i] = 10*x0 + x1
	}
	return X, y
}

// 不均衡二分类：x0 > 8 为正类
func classificationData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		x0 := rng.Float64() * 10
		X[i] = []float64{x0, rng.Float64()}
		if x0 > 8 {
			y[i] = 1
		}
	}
	return X, y
}

func TestFitTree_SplitsOnInformativeFeature(t *testing.T) {
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}, {10, 5}, {11, 5}, {12, 5}}
	y := []float64{1, 1, 1, 9, 9, 9}

	tree := FitTree(X, y, nil, TreeParams{MaxDepth: 3}, nil)
	require.NoError(t, tree.Validate())

	assert.Equal(t, 0, tree.Nodes[0].Feature)
	assert.InDelta(t, 1.0, tree.Predict([]float64{2.5, 0}), 1e-9)
	assert.InDelta(t, 9.0, tree.Predict([]float64{20, 0}), 1e-9)
	// 特征维度不足时停在当前节点
	assert.InDelta(t, 5.0, tree.Predict(nil), 1e-9)
}

func TestFitTree_RespectsDepthAndWeights(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{0, 0, 10, 10}

	stump := FitTree(X, y, nil, TreeParams{MaxDepth: 0, MinSamplesSplit: 10}, nil)
	assert.Len(t, stump.Nodes, 1)
	assert.InDelta(t, 5.0, stump.Predict([]float64{1}), 1e-9)

	// 权重为 0 的样本不参与
	w := []float64{1, 1, 0, 0}
	tree := FitTree(X, y, w, TreeParams{}, nil)
	assert.InDelta(t, 0.0, tree.Predict([]float64{4}), 1e-9)
}

func TestDecisionTree_ValidateRejectsCycles(t *testing.T) {
	bad := &DecisionTree{Nodes: []Node{{Feature: 0, Threshold: 1, Left: 0, Right: 1}, {Feature: -1}}}
	assert.Error(t, bad.Validate())
	assert.Error(t, (&DecisionTree{}).Validate())
}

func TestRandomForest_Regression(t *testing.T) {
	X, y := regressionData(300, 1)
	rf, err := FitRandomForest(context.Background(), X, y, ForestParams{NEstimators: 30, MaxDepth: 10, MinSamplesSplit: 5, Seed: 42}, false)
	require.NoError(t, err)
	require.NoError(t, rf.Validate())
	assert.Equal(t, AlgoRandomForest, rf.Algorithm())

	pred := rf.Predict([]float64{5, 0.5})
	assert.InDelta(t, 50.5, pred, 4.0)

	trees := rf.TreePredictions([]float64{5, 0.5}, 10)
	assert.Len(t, trees, 10)
	assert.Len(t, rf.TreePredictions([]float64{5, 0.5}, 0), 30)
}

func TestRandomForest_Deterministic(t *testing.T) {
	X, y := regressionData(120, 7)
	p := ForestParams{NEstimators: 12, MaxDepth: 6, Seed: 42}
	a, err := FitRandomForest(context.Background(), X, y, p, false)
	require.NoError(t, err)
	b, err := FitRandomForest(context.Background(), X, y, p, false)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRandomForest_ClassifierBalanced(t *testing.T) {
	X, y := classificationData(400, 3)
	rf, err := FitRandomForest(context.Background(), X, y, ForestParams{NEstimators: 40, MaxDepth: 8, Seed: 42, BalancedClassWeight: true}, true)
	require.NoError(t, err)
	assert.Equal(t, AlgoRandomForestClassifier, rf.Algorithm())

	hi := rf.PredictProba([]float64{9.5, 0.5})
	lo := rf.PredictProba([]float64{1, 0.5})
	assert.Greater(t, hi, 0.5)
	assert.Less(t, lo, 0.5)
	assert.True(t, hi >= 0 && hi <= 1)
}

func TestRandomForest_CanceledContext(t *testing.T) {
	X, y := regressionData(50, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FitRandomForest(ctx, X, y, ForestParams{NEstimators: 5}, false)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = FitRandomForest(context.Background(), nil, nil, ForestParams{}, false)
	assert.Error(t, err)
}

func TestGradientBoosting(t *testing.T) {
	X, y := regressionData(200, 5)
	gb, err := FitGradientBoosting(X, y, GBDTParams{NEstimators: 100, MaxDepth: 5, LearningRate: 0.1})
	require.NoError(t, err)
	require.NoError(t, gb.Validate())
	assert.Len(t, gb.Trees, 100)
	assert.InDelta(t, 30.5, gb.Predict([]float64{3, 0.5}), 3.0)
}

func TestFitLR(t *testing.T) {
	X, y := classificationData(300, 11)
	scaler := &feature.StandardScaler{}
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	lr, err := FitLR(Xs, y, LRParams{Iterations: 800, LearningRate: 0.5, BalancedClassWeight: true})
	require.NoError(t, err)
	require.NoError(t, lr.Validate())

	hi, _ := scaler.Transform([]float64{9.8, 0.5})
	lo, _ := scaler.Transform([]float64{0.5, 0.5})
	assert.Greater(t, lr.PredictProba(hi), 0.5)
	assert.Less(t, lr.PredictProba(lo), 0.5)
	assert.Greater(t, lr.Weights[0], 0.0)
}

func TestArtifact_RoundTrip(t *testing.T) {
	X, y := regressionData(80, 2)
	rf, err := FitRandomForest(context.Background(), X, y, ForestParams{NEstimators: 5, MaxDepth: 4, Seed: 42}, false)
	require.NoError(t, err)

	scaler := &feature.StandardScaler{}
	require.NoError(t, scaler.Fit(X))

	data, err := Encode(&Artifact{
		Name:           "rank_model",
		FeatureColumns: feature.Schema{"a", "b"},
		Metrics:        map[string]float64{"r2": 0.9},
		Samples:        80,
		Scaler:         scaler,
		Estimator:      rf,
	})
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, AlgoRandomForest, got.Algorithm)
	assert.Equal(t, 80, got.Samples)
	assert.Equal(t, scaler, got.Scaler)

	reg, ok := got.Estimator.(Regressor)
	require.True(t, ok)
	for _, x := range X[:10] {
		assert.Equal(t, rf.Predict(x), reg.Predict(x))
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := map[string]string{
		"not json":        "{",
		"wrong version":   `{"format_version":9,"algorithm":"RandomForest","estimator":{}}`,
		"unknown algo":    `{"format_version":1,"algorithm":"XGBoost","estimator":{}}`,
		"empty estimator": `{"format_version":1,"algorithm":"RandomForest","estimator":{"trees":[]}}`,
		"scaler mismatch": `{"format_version":1,"algorithm":"LogisticRegression","feature_columns":["a"],"scaler":{"mean":[0,0],"scale":[1,1]},"estimator":{"bias":0,"weights":[1]}}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			require.Error(t, err)
			de := core.GetDomainError(err)
			require.NotNil(t, de)
			assert.Equal(t, core.ErrorCodeInvalidInput, de.Code)
		})
	}

	_, err := Encode(&Artifact{Name: "x"})
	assert.Error(t, err)
}

func TestPreprocessing_RoundTrip(t *testing.T) {
	enc := feature.NewLabelEncoder(nil)
	enc.Fit(feature.CategoryKey, []string{"Home", "Books"})
	data, err := EncodePreprocessing(&Preprocessing{Encoders: enc, FeatureColumns: feature.PriceSchema})
	require.NoError(t, err)

	got, err := DecodePreprocessing(data)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Encoders.Transform(feature.CategoryKey, "Home"))
	assert.Equal(t, feature.PriceSchema, got.FeatureColumns)

	_, err = DecodePreprocessing([]byte(`{"format_version":0}`))
	assert.Error(t, err)
}

func TestEmbeddingIndex(t *testing.T) {
	products := []core.Product{
		{ID: "a", Price: 100, Rating: 4.5, ReviewCount: 200, Rank: 50},
		{ID: "b", Price: 105, Rating: 4.4, ReviewCount: 210, Rank: 60},
		{ID: "c", Price: 900, Rating: 2.0, ReviewCount: 3, Rank: 90000},
		{ID: "d", Price: 20, Rating: 3.0, ReviewCount: 10, Rank: 40000},
	}
	idx, err := BuildEmbeddingIndex(products)
	require.NoError(t, err)
	require.NoError(t, idx.Validate())
	assert.Equal(t, 4, idx.Len())

	got, ok := idx.Nearest("a", 2)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Score, 0.1)
	for _, n := range got {
		assert.NotEqual(t, "a", n.ID)
	}

	_, ok = idx.Nearest("missing", 2)
	assert.False(t, ok)

	v, err := idx.Embed(core.Product{Price: 100, Rating: 4.5, ReviewCount: 200, Rank: 50})
	require.NoError(t, err)
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	// 序列化后仍可检索
	data, err := Encode(&Artifact{Name: "similarity_index", FeatureColumns: idx.Schema, Estimator: idx})
	require.NoError(t, err)
	art, err := Decode(data)
	require.NoError(t, err)
	restored := art.Estimator.(*EmbeddingIndex)
	again, ok := restored.Nearest("a", 2)
	require.True(t, ok)
	assert.Equal(t, got, again)
}

func TestEmbeddingIndex_NearestIsReadOnly(t *testing.T) {
	var zero EmbeddingIndex
	_, ok := zero.Nearest("a", 2)
	assert.False(t, ok)

	idx, err := BuildEmbeddingIndex([]core.Product{
		{ID: "a", Price: 100, Rating: 4.5, ReviewCount: 200, Rank: 50},
		{ID: "b", Price: 105, Rating: 4.4, ReviewCount: 210, Rank: 60},
		{ID: "c", Price: 900, Rating: 2.0, ReviewCount: 3, Rank: 90000},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok := idx.Nearest("a", 1)
			assert.True(t, ok)
			assert.Len(t, got, 1)
		}()
	}
	wg.Wait()
}
