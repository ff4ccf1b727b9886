package feature

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopsense/core"
)

func TestPrepare_Defaults(t *testing.T) {
	tests := []struct {
		name    string
		product core.Product
		schema  Schema
		want    Vector
	}{
		{
			name:    "all fields missing use defaults",
			product: core.Product{ID: "p1"},
			schema:  Schema{ColRating, ColReviews, ColRank, ColPrice, ColStock},
			want:    Vector{4.0, 100, 5000, 100, 0},
		},
		{
			name:    "zero values treated as missing",
			product: core.Product{ID: "p2", Rating: 0, ReviewCount: 0, Rank: 0},
			schema:  Schema{ColRating, ColLogReviews, ColLogRank},
			want:    Vector{4.0, math.Log1p(100), math.Log1p(5000)},
		},
		{
			name:    "present values pass through",
			product: core.Product{ID: "p3", Rating: 4.8, ReviewCount: 1200, Rank: 45, Price: 80, Stock: 3},
			schema:  Schema{ColPrice, ColRating, ColLogReviews, ColStock},
			want:    Vector{80, 4.8, math.Log1p(1200), 3},
		},
		{
			name:    "unknown columns read extra or default to zero",
			product: core.Product{ID: "p4", Extra: map[string]float64{"discount": 0.15}},
			schema:  Schema{"discount", "not_there"},
			want:    Vector{0.15, 0},
		},
		{
			name:    "empty schema uses default schema",
			product: core.Product{ID: "p5", Rating: 3.5, ReviewCount: 7},
			schema:  nil,
			want:    Vector{3.5, 7, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Prepare(tt.product, tt.schema, nil, nil)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestPrepare_CategoryEncoding(t *testing.T) {
	enc := NewLabelEncoder(nil)
	enc.Fit(CategoryKey, []string{"Electronics", "Books", "Home", "Books"})

	schema := Schema{ColCategoryEncoded}

	got, err := Prepare(core.Product{Category: "Home"}, schema, enc, nil)
	require.NoError(t, err)
	assert.Equal(t, Vector{2}, got) // Books=0, Electronics=1, Home=2

	// 训练时未见过的类目编码为 0，不报错
	got, err = Prepare(core.Product{Category: "Garden"}, schema, enc, nil)
	require.NoError(t, err)
	assert.Equal(t, Vector{0}, got)

	assert.Equal(t, []string{"Books", "Electronics", "Home"}, enc.Classes(CategoryKey))
}

func TestPrepare_Scaler(t *testing.T) {
	s := &StandardScaler{}
	_, err := s.FitTransform([][]float64{{1, 10}, {3, 10}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 10}, s.Mean)
	assert.Equal(t, []float64{1, 1}, s.Scale) // 第二列方差为 0，按 1 处理

	got, err := Prepare(core.Product{Rating: 3, ReviewCount: 10}, Schema{ColRating, ColReviews}, nil, s)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0}, got, 1e-12)
}

func TestPrepare_Errors(t *testing.T) {
	t.Run("non finite value", func(t *testing.T) {
		_, err := Prepare(core.Product{Rating: math.NaN()}, Schema{ColRating}, nil, nil)
		var pe *PrepError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, ColRating, pe.Column)
		assert.Equal(t, core.ErrorCodeInvalidInput, core.GetDomainError(err).Code)
	})

	t.Run("scaler width mismatch", func(t *testing.T) {
		s := &StandardScaler{Mean: []float64{0}, Scale: []float64{1}}
		_, err := Prepare(core.Product{}, Schema{ColRating, ColPrice}, nil, s)
		var pe *PrepError
		require.True(t, errors.As(err, &pe))
	})
}

func TestChainEnricher(t *testing.T) {
	fill := EnricherFunc(func(ctx context.Context, p core.Product) (core.Product, error) {
		return FillMissing(p, core.Product{Rating: 4.2, Rank: 10, Price: 999}), nil
	})
	boom := EnricherFunc(func(ctx context.Context, p core.Product) (core.Product, error) {
		return core.Product{}, errors.New("boom")
	})

	got, err := ChainEnricher{fill}.Enrich(context.Background(), core.Product{ID: "x", Price: 12})
	require.NoError(t, err)
	assert.Equal(t, 4.2, got.Rating)
	assert.Equal(t, 10, got.Rank)
	assert.Equal(t, 12.0, got.Price, "present values are not overwritten")

	got, err = ChainEnricher{fill, boom}.Enrich(context.Background(), core.Product{ID: "x"})
	require.Error(t, err)
	assert.Equal(t, 4.2, got.Rating, "result of previous enricher is kept")
}
