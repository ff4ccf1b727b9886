package train

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/model"
	"github.com/rushteam/shopsense/modelstore"
	"github.com/rushteam/shopsense/predict"
	"github.com/rushteam/shopsense/store"
)

var trainedAt = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

func fixture(n int) []core.Product {
	rng := rand.New(rand.NewSource(7))
	cats := []string{"Electronics", "Books", "Home", "Sports"}
	out := make([]core.Product, n)
	for i := range out {
		rating := 3 + rng.Float64()*2
		reviews := rng.Intn(2000)
		rank := 200 + rng.Intn(3000)
		if i%6 == 0 {
			rank = 1 + rng.Intn(100)
		}
		out[i] = core.Product{
			ID:          fmt.Sprintf("p%03d", i),
			Title:       fmt.Sprintf("Product %d", i),
			Price:       10 + rating*20 + float64(reviews)/50 + rng.Float64()*5,
			Rating:      rating,
			ReviewCount: reviews,
			Rank:        rank,
			Stock:       rng.Intn(50),
			Category:    cats[i%len(cats)],
		}
	}
	return out
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.NEstimators = 15
	return cfg
}

func newTrainer(w modelstore.ArtifactWriter, cfg Config) *Trainer {
	return NewTrainer(w, WithConfig(cfg), WithClock(func() time.Time { return trainedAt }))
}

func TestTrainAll_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	mgr, err := modelstore.New(ctx, s)
	require.NoError(t, err)
	svc := predict.NewService(mgr)

	query := core.Product{ID: "query", Rating: 4.6, ReviewCount: 800, Rank: 40, Price: 120, Stock: 5, Category: "Books"}
	before := svc.PredictPrice(ctx, query)
	require.Equal(t, predict.ModelHeuristic, before.ModelUsed)

	results := newTrainer(mgr, fastConfig()).TrainAll(ctx, fixture(200))
	for name, res := range results {
		assert.True(t, res.Success, "%s: %s", name, res.Error)
		assert.Equal(t, name, res.Model)
	}
	assert.Len(t, results, 7)
	assert.Contains(t, results[modelstore.NamePrice].Metrics, "r2")
	assert.Contains(t, results[modelstore.NamePrice].Metrics, "rmse")
	assert.Contains(t, results[modelstore.NameBestseller].Metrics, "f1")
	assert.Equal(t, 40, results[modelstore.NamePrice].TestSamples)
	assert.Equal(t, model.AlgoGradientBoosting, results[modelstore.NameDemand].Algorithm)

	// 训练不修改在线状态
	assert.False(t, mgr.IsReady())
	assert.Equal(t, predict.ModelHeuristic, svc.PredictPrice(ctx, query).ModelUsed)

	mgr.Reload(ctx)
	st := mgr.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, 4, st.ModelsLoaded)
	assert.True(t, st.HasEncoders)
	assert.True(t, st.HasScaler)
	assert.True(t, st.HasSimilarityIndex)
	assert.Equal(t, 200, st.CatalogSize)
	assert.Equal(t, model.AlgoRandomForest, st.Models[modelstore.NameRank].Algorithm)
	assert.Equal(t, results[modelstore.NamePrice].Metrics, st.Models[modelstore.NamePrice].Metrics)

	price := svc.PredictPrice(ctx, query)
	assert.Equal(t, model.AlgoRandomForest, price.ModelUsed)
	assert.True(t, price.Success)
	assert.Greater(t, price.PredictedPrice, 0.0)

	demand := svc.PredictDemand(ctx, query, 30)
	assert.Equal(t, model.AlgoGradientBoosting, demand.ModelUsed)

	best := svc.PredictBestseller(ctx, query)
	assert.Equal(t, model.AlgoRandomForestClassifier, best.ModelUsed)
	assert.True(t, best.Probability >= 0 && best.Probability <= 1)

	rank := svc.PredictRank(ctx, query)
	assert.Equal(t, model.AlgoRandomForest, rank.ModelUsed)
	assert.GreaterOrEqual(t, rank.PredictedRank, 1)

	similar := svc.FindSimilar(ctx, "p001", 3)
	assert.Equal(t, predict.SimilarityEmbedding, similar.Method)
	assert.Len(t, similar.Items, 3)
}

func TestTrainAll_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, b := store.NewMemoryStore(), store.NewMemoryStore()
	products := fixture(120)

	newTrainer(modelstoreWriter{a}, fastConfig()).TrainAll(ctx, products)
	newTrainer(modelstoreWriter{b}, fastConfig()).TrainAll(ctx, products)

	for _, key := range []string{modelstore.KeyPrice, modelstore.KeyRank, modelstore.KeyBestseller, modelstore.KeyDemand} {
		va, err := a.Get(ctx, key)
		require.NoError(t, err)
		vb, err := b.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, va, vb, key)
	}
}

// modelstoreWriter 直接写 store，不经过 Manager
type modelstoreWriter struct{ s core.Store }

func (w modelstoreWriter) Save(ctx context.Context, key string, data []byte) error {
	return w.s.Set(ctx, key, data)
}

func TestTrainAll_InsufficientData(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	results := newTrainer(modelstoreWriter{s}, fastConfig()).TrainAll(ctx, fixture(10))

	for _, name := range []string{modelstore.NamePrice, modelstore.NameDemand, modelstore.NameRank, modelstore.NameBestseller} {
		res := results[name]
		assert.False(t, res.Success, name)
		assert.Contains(t, res.Error, "need at least", name)
		_, err := s.Get(ctx, modelstore.ModelKeys[name])
		assert.True(t, core.IsStoreNotFound(err), name)
	}
	// 辅助产物仍然写出
	assert.True(t, results[NameCatalog].Success)
	assert.True(t, results[NameSimilarity].Success)
	assert.True(t, results[NamePreprocessing].Success)
}

func TestTrainAll_BestsellerNeedsPositives(t *testing.T) {
	products := fixture(60)
	for i := range products {
		products[i].Rank = 5000 + i
	}
	products[0].Rank, products[1].Rank = 3, 7

	results := newTrainer(modelstoreWriter{store.NewMemoryStore()}, fastConfig()).TrainAll(context.Background(), products)
	assert.False(t, results[modelstore.NameBestseller].Success)
	assert.Contains(t, results[modelstore.NameBestseller].Error, "bestsellers")
	assert.True(t, results[modelstore.NamePrice].Success)
	assert.True(t, results[modelstore.NameRank].Success)
}

func TestTrainAll_AlternativeAlgorithms(t *testing.T) {
	ctx := context.Background()
	cfg := fastConfig()
	cfg.PriceAlgorithm = AlgoGB
	cfg.BestsellerAlgorithm = AlgoLR

	s := store.NewMemoryStore()
	results := newTrainer(modelstoreWriter{s}, cfg).TrainAll(ctx, fixture(150))
	assert.Equal(t, model.AlgoGradientBoosting, results[modelstore.NamePrice].Algorithm)
	assert.Equal(t, model.AlgoLogisticRegression, results[modelstore.NameBestseller].Algorithm)

	mgr, err := modelstore.New(ctx, s)
	require.NoError(t, err)
	tm, ok := mgr.Snapshot().Bestseller.Get()
	require.True(t, ok)
	assert.NotNil(t, tm.Scaler)

	res := predict.NewService(mgr).PredictBestseller(ctx, core.Product{Rating: 4.9, ReviewCount: 1500, Price: 150})
	assert.Equal(t, model.AlgoLogisticRegression, res.ModelUsed)
}

func TestTrainAll_AssignsMissingIDs(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	products := fixture(5)
	products[2].ID = ""

	newTrainer(modelstoreWriter{s}, fastConfig()).TrainAll(ctx, products)
	data, err := s.Get(ctx, modelstore.KeyCatalog)
	require.NoError(t, err)
	catalog, err := modelstore.DecodeCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, "2", catalog[2].ID)
	assert.Equal(t, "", products[2].ID)
}

func TestSplit(t *testing.T) {
	d := dataset{X: make([][]float64, 10), y: make([]float64, 10)}
	for i := range d.y {
		d.X[i] = []float64{float64(i)}
		d.y[i] = float64(i)
	}
	train, test := split(d, 0.2, 42)
	assert.Len(t, train.y, 8)
	assert.Len(t, test.y, 2)

	train2, test2 := split(d, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	assert.Equal(t, 3, testSize(11, 0.2))
	assert.Equal(t, 0, testSize(1, 0.2))
}

func TestStratifiedSplit(t *testing.T) {
	d := dataset{}
	for i := 0; i < 50; i++ {
		d.X = append(d.X, []float64{float64(i)})
		label := 0.0
		if i%10 == 0 {
			label = 1
		}
		d.y = append(d.y, label)
	}
	train, test := stratifiedSplit(d, 0.2, 42)
	count := func(ys []float64) (n int) {
		for _, y := range ys {
			if y == 1 {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, count(test.y))
	assert.Equal(t, 4, count(train.y))
	assert.Len(t, test.y, 10)
}

func TestMetrics(t *testing.T) {
	m := regressionMetrics([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.Equal(t, 0.0, m["rmse"])
	assert.Equal(t, 1.0, m["r2"])

	m = regressionMetrics([]float64{1, 3}, []float64{2, 2})
	assert.Equal(t, 1.0, m["rmse"])
	assert.Equal(t, 1.0, m["mae"])
	assert.Equal(t, 0.0, m["r2"])

	c := classificationMetrics([]float64{1, 1, 0, 0}, []float64{1, 0, 1, 0})
	assert.Equal(t, 0.5, c["accuracy"])
	assert.Equal(t, 0.5, c["precision"])
	assert.Equal(t, 0.5, c["recall"])
	assert.Equal(t, 0.5, c["f1"])
}
