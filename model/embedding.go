package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
)

// EmbeddingSchema 相似度索引使用的数值特征
var EmbeddingSchema = feature.Schema{feature.ColPrice, feature.ColRating, feature.ColLogReviews, feature.ColLogRank}

// EmbeddingIndex 商品向量索引：特征经标准化后做 L2 归一化，检索用余弦相似度。
// 规模是单个目录（万级），线性扫描即可。
type EmbeddingIndex struct {
	Schema  feature.Schema          `json:"schema"`
	Scaler  *feature.StandardScaler `json:"scaler"`
	IDs     []string                `json:"ids"`
	Vectors [][]float64             `json:"vectors"`

	pos map[string]int
}

// Neighbor 检索结果
type Neighbor struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// BuildEmbeddingIndex 基于目录构建索引
func BuildEmbeddingIndex(products []core.Product) (*EmbeddingIndex, error) {
	if len(products) == 0 {
		return nil, errors.New("embedding: empty catalog")
	}
	raw, err := feature.Matrix(products, EmbeddingSchema, nil)
	if err != nil {
		return nil, err
	}
	scaler := &feature.StandardScaler{}
	scaled, err := scaler.FitTransform(raw)
	if err != nil {
		return nil, err
	}
	idx := &EmbeddingIndex{
		Schema:  EmbeddingSchema.Clone(),
		Scaler:  scaler,
		IDs:     make([]string, len(products)),
		Vectors: make([][]float64, len(products)),
	}
	for i, p := range products {
		idx.IDs[i] = p.ID
		idx.Vectors[i] = normalize(scaled[i])
	}
	idx.reindex()
	return idx, nil
}

func (e *EmbeddingIndex) Algorithm() string { return "EmbeddingIndex" }

func (e *EmbeddingIndex) Validate() error {
	if len(e.IDs) != len(e.Vectors) {
		return fmt.Errorf("embedding: %d ids but %d vectors", len(e.IDs), len(e.Vectors))
	}
	if e.Scaler == nil || e.Scaler.Width() != len(e.Schema) {
		return errors.New("embedding: scaler does not match schema")
	}
	for i, v := range e.Vectors {
		if len(v) != len(e.Schema) {
			return fmt.Errorf("embedding: vector %d has width %d", i, len(v))
		}
	}
	e.reindex()
	return nil
}

func (e *EmbeddingIndex) reindex() {
	e.pos = make(map[string]int, len(e.IDs))
	for i, id := range e.IDs {
		e.pos[id] = i
	}
}

// Len 索引中的商品数
func (e *EmbeddingIndex) Len() int { return len(e.IDs) }

// Embed 计算任意商品的向量（不要求在索引中）
func (e *EmbeddingIndex) Embed(p core.Product) ([]float64, error) {
	v, err := feature.Prepare(p, e.Schema, nil, e.Scaler)
	if err != nil {
		return nil, err
	}
	return normalize(v), nil
}

// Nearest 返回与 id 最相似的 k 个商品（不含自身）；id 不在索引中返回 ok=false。
// 只读，可并发调用；位置表由 BuildEmbeddingIndex / Validate 建好，未经二者的索引一律查不到。
func (e *EmbeddingIndex) Nearest(id string, k int) ([]Neighbor, bool) {
	i, ok := e.pos[id]
	if !ok {
		return nil, false
	}
	return e.NearestVector(e.Vectors[i], k, id), true
}

// NearestVector 余弦 top-k；exclude 中的 id 不参与排序。
func (e *EmbeddingIndex) NearestVector(q []float64, k int, exclude ...string) []Neighbor {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]Neighbor, 0, len(e.IDs))
	for i, v := range e.Vectors {
		if _, ok := skip[e.IDs[i]]; ok {
			continue
		}
		out = append(out, Neighbor{ID: e.IDs[i], Score: dot(q, v)})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		if i < len(b) {
			s += a[i] * b[i]
		}
	}
	return s
}

func normalize(v []float64) []float64 {
	var n float64
	for _, x := range v {
		n += x * x
	}
	out := make([]float64, len(v))
	if n == 0 {
		return out
	}
	n = math.Sqrt(n)
	for i, x := range v {
		out[i] = x / n
	}
	return out
}
