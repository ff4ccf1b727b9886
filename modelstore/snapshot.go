package modelstore

import (
	"encoding/json"
	"time"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
	"github.com/rushteam/shopsense/model"
)

// TrainedModel 是一个已加载、可用于推理的模型。加载后只读。
type TrainedModel struct {
	Name      string
	Key       string
	Algorithm string
	Estimator model.Estimator
	Scaler    *feature.StandardScaler
	Schema    feature.Schema
	Metrics   map[string]float64
	Samples   int
	TrainedAt time.Time
}

func fromArtifact(key string, a *model.Artifact) *TrainedModel {
	return &TrainedModel{
		Name:      a.Name,
		Key:       key,
		Algorithm: a.Algorithm,
		Estimator: a.Estimator,
		Scaler:    a.Scaler,
		Schema:    a.FeatureColumns,
		Metrics:   a.Metrics,
		Samples:   a.Samples,
		TrainedAt: a.TrainedAt,
	}
}

// Regressor 返回回归器；估计器不是回归器时 ok=false
func (m *TrainedModel) Regressor() (model.Regressor, bool) {
	r, ok := m.Estimator.(model.Regressor)
	return r, ok
}

// Classifier 返回分类器；估计器不是分类器时 ok=false
func (m *TrainedModel) Classifier() (model.Classifier, bool) {
	c, ok := m.Estimator.(model.Classifier)
	return c, ok
}

// Slot 要么是 Loaded(model)，要么是 Absent。零值为 Absent。
type Slot struct {
	model *TrainedModel
}

// Loaded 构造已加载的槽位
func Loaded(m *TrainedModel) Slot { return Slot{model: m} }

// Absent 构造空槽位
func Absent() Slot { return Slot{} }

// Get 返回模型；Absent 时 ok=false
func (s Slot) Get() (*TrainedModel, bool) { return s.model, s.model != nil }

func (s Slot) IsLoaded() bool { return s.model != nil }

// Snapshot 是某一时刻完整的模型集合。发布后不可变，读者无锁读取。
type Snapshot struct {
	Price      Slot
	Demand     Slot
	Bestseller Slot
	Rank       Slot

	Preprocessing *model.Preprocessing
	Similarity    *model.EmbeddingIndex
	Catalog       []core.Product

	LoadedAt time.Time
}

// Slot 按模型名取槽位
func (s *Snapshot) Slot(name string) Slot {
	switch name {
	case NamePrice:
		return s.Price
	case NameDemand:
		return s.Demand
	case NameBestseller:
		return s.Bestseller
	case NameRank:
		return s.Rank
	}
	return Absent()
}

// ModelsLoaded 已加载的预测模型数（0-4）
func (s *Snapshot) ModelsLoaded() int {
	n := 0
	for _, slot := range []Slot{s.Price, s.Demand, s.Bestseller, s.Rank} {
		if slot.IsLoaded() {
			n++
		}
	}
	return n
}

// Encoders 共享的类目编码器；未加载预处理产物时为 nil（编码一律为 0）
func (s *Snapshot) Encoders() *feature.LabelEncoder {
	if s.Preprocessing == nil {
		return nil
	}
	return s.Preprocessing.Encoders
}

// SharedScaler 预处理产物中的共享 scaler，可能为 nil
func (s *Snapshot) SharedScaler() *feature.StandardScaler {
	if s.Preprocessing == nil {
		return nil
	}
	return s.Preprocessing.Scaler
}

// FindProduct 在目录快照中按 id 查找
func (s *Snapshot) FindProduct(id string) (core.Product, bool) {
	for _, p := range s.Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return core.Product{}, false
}

// EncodeCatalog 序列化目录快照
func EncodeCatalog(products []core.Product) ([]byte, error) {
	return json.Marshal(products)
}

// DecodeCatalog 反序列化目录快照
func DecodeCatalog(data []byte) ([]core.Product, error) {
	var products []core.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, core.NewDomainError(core.ModuleModelStore, core.ErrorCodeInvalidInput, "decode catalog: "+err.Error())
	}
	return products, nil
}
