package modelstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
	"github.com/rushteam/shopsense/model"
	"github.com/rushteam/shopsense/store"
)

// flakyStore 对指定 key 的读取返回错误
type flakyStore struct {
	core.Store
	mu   sync.Mutex
	fail map[string]bool
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	broken := f.fail[key]
	f.mu.Unlock()
	if broken {
		return nil, errors.New("disk on fire")
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) setFail(key string, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[key] = v
}

func constantForest(v float64) *model.RandomForest {
	return &model.RandomForest{Trees: []*model.DecisionTree{{Nodes: []model.Node{{Feature: -1, Value: v}}}}}
}

func saveModel(t *testing.T, s core.Store, key, name string, est model.Estimator, samples int) {
	t.Helper()
	data, err := model.Encode(&model.Artifact{
		Name:           name,
		FeatureColumns: feature.PriceSchema,
		Samples:        samples,
		Metrics:        map[string]float64{"r2": 0.5},
		Estimator:      est,
	})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), key, data))
}

func TestManager_ZeroModels(t *testing.T) {
	m, err := New(context.Background(), store.NewMemoryStore())
	require.NoError(t, err)

	assert.False(t, m.IsReady())
	assert.Equal(t, StateReady, m.State())

	st := m.Status()
	assert.False(t, st.Ready)
	assert.Equal(t, 0, st.ModelsLoaded)
	assert.Len(t, st.Models, 4)
	assert.False(t, st.Models[NamePrice].Loaded)
	assert.Equal(t, "memory", st.Backend)
	assert.NotNil(t, st.LastReload)
	assert.Empty(t, st.Errors)

	_, err = New(context.Background(), nil)
	assert.Error(t, err)
}

func TestManager_LazyLoad(t *testing.T) {
	s := store.NewMemoryStore()
	saveModel(t, s, KeyPrice, NamePrice, constantForest(42), 10)

	m := NewManager(s)
	assert.Equal(t, StateUninitialized, m.State())
	assert.False(t, m.IsReady())

	snap := m.Snapshot()
	assert.True(t, snap.Price.IsLoaded())
	assert.True(t, m.IsReady())
	assert.Same(t, snap, m.Snapshot())
}

func TestManager_LoadsAllArtifacts(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	saveModel(t, s, KeyPrice, NamePrice, constantForest(42), 10)
	saveModel(t, s, KeyBestseller, NameBestseller, &model.LRModel{Weights: []float64{1, 1, 1}}, 30)

	enc := feature.NewLabelEncoder(nil)
	enc.Fit(feature.CategoryKey, []string{"Books", "Home"})
	pre, err := model.EncodePreprocessing(&model.Preprocessing{Encoders: enc, FeatureColumns: feature.PriceSchema})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyPreprocessing, pre))

	catalog, err := EncodeCatalog([]core.Product{{ID: "p1", Title: "Lamp"}})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyCatalog, catalog))

	m, err := New(ctx, s)
	require.NoError(t, err)
	snap := m.Snapshot()

	price, ok := snap.Price.Get()
	require.True(t, ok)
	assert.Equal(t, NamePrice, price.Name)
	assert.Equal(t, KeyPrice, price.Key)
	reg, ok := price.Regressor()
	require.True(t, ok)
	assert.Equal(t, 42.0, reg.Predict([]float64{1, 2, 3, 4}))

	_, ok = snap.Demand.Get()
	assert.False(t, ok)
	assert.Equal(t, 2, snap.ModelsLoaded())
	assert.Equal(t, 1.0, snap.Encoders().Transform(feature.CategoryKey, "Home"))

	p, ok := snap.FindProduct("p1")
	require.True(t, ok)
	assert.Equal(t, "Lamp", p.Title)

	st := m.Status()
	assert.True(t, st.Ready)
	assert.True(t, st.HasEncoders)
	assert.Equal(t, 1, st.CatalogSize)
	assert.Equal(t, 4, st.FeatureColumns)
	assert.Equal(t, "RandomForest", st.Models[NamePrice].Algorithm)
	assert.Equal(t, 0.5, st.Models[NamePrice].Metrics["r2"])
}

func TestManager_StatusReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	saveModel(t, s, KeyPrice, NamePrice, constantForest(42), 10)

	m, err := New(ctx, s)
	require.NoError(t, err)

	st := m.Status()
	require.Equal(t, 0.5, st.Models[NamePrice].Metrics["r2"])
	st.Models[NamePrice].Metrics["r2"] = -1
	st.Models[NamePrice].Metrics["injected"] = 1

	price, ok := m.Snapshot().Price.Get()
	require.True(t, ok)
	assert.Equal(t, 0.5, price.Metrics["r2"])
	assert.NotContains(t, price.Metrics, "injected")
	assert.Equal(t, 0.5, m.Status().Models[NamePrice].Metrics["r2"])
}

func TestManager_ReloadSwapsReference(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	saveModel(t, s, KeyPrice, NamePrice, constantForest(10), 10)

	m, err := New(ctx, s)
	require.NoError(t, err)
	old := m.Snapshot()

	// Save 不影响在线快照
	data, err := model.Encode(&model.Artifact{Name: NamePrice, Samples: 99, Estimator: constantForest(20)})
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, KeyPrice, data))
	tm, _ := m.Snapshot().Price.Get()
	assert.Equal(t, 10, tm.Samples)

	fresh := m.Reload(ctx)
	assert.NotSame(t, old, fresh)
	tm, _ = fresh.Price.Get()
	assert.Equal(t, 99, tm.Samples)

	// 旧引用仍然可用且未被修改
	oldModel, _ := old.Price.Get()
	reg, _ := oldModel.Regressor()
	assert.Equal(t, 10.0, reg.Predict(nil))
	assert.Equal(t, int64(1), m.Status().Reloads)
}

func TestManager_ReloadKeepsPriorOnFailure(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{Store: store.NewMemoryStore(), fail: map[string]bool{}}
	saveModel(t, s, KeyPrice, NamePrice, constantForest(10), 10)
	saveModel(t, s, KeyRank, NameRank, constantForest(500), 10)

	m, err := New(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 2, m.Snapshot().ModelsLoaded())

	// 读失败：保留旧模型
	s.setFail(KeyPrice, true)
	// 损坏的产物：保留旧模型
	require.NoError(t, s.Set(ctx, KeyRank, []byte("{not json")))

	snap := m.Reload(ctx)
	assert.True(t, snap.Price.IsLoaded())
	tm, _ := snap.Rank.Get()
	assert.Equal(t, 10, tm.Samples)

	st := m.Status()
	assert.Contains(t, st.Errors, NamePrice)
	assert.Contains(t, st.Errors, NameRank)

	// 产物被删除：槽位置空
	s.setFail(KeyPrice, false)
	require.NoError(t, s.Delete(ctx, KeyPrice))
	snap = m.Reload(ctx)
	assert.False(t, snap.Price.IsLoaded())
}

func TestManager_RejectsWrongModelKind(t *testing.T) {
	s := store.NewMemoryStore()
	// 回归森林放到分类槽位
	saveModel(t, s, KeyBestseller, NameBestseller, &model.GradientBoosting{Trees: constantForest(1).Trees}, 10)

	m, err := New(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, m.Snapshot().Bestseller.IsLoaded())
	assert.Contains(t, m.Status().Errors, NameBestseller)
}

func TestManager_ConcurrentReadersDuringReload(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	saveModel(t, s, KeyPrice, NamePrice, constantForest(10), 10)
	m, err := New(ctx, s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := m.Snapshot()
				tm, ok := snap.Price.Get()
				if assert.True(t, ok) {
					reg, _ := tm.Regressor()
					v := reg.Predict(nil)
					assert.True(t, v == 10 || v == 20)
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		saveModel(t, s, KeyPrice, NamePrice, constantForest(float64(10+10*(i%2))), 10)
		m.Reload(ctx)
	}
	wg.Wait()
}
