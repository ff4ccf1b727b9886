package modelstore

import (
	"maps"
	"time"
)

// ModelStatus 单个模型的状态
type ModelStatus struct {
	Loaded    bool               `json:"loaded"`
	Algorithm string             `json:"algorithm,omitempty"`
	Samples   int                `json:"samples,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	TrainedAt *time.Time         `json:"trained_at,omitempty"`
}

// Status 供外部健康检查使用的机器可读状态
type Status struct {
	Ready              bool                   `json:"ready"`
	State              State                  `json:"state"`
	Backend            string                 `json:"backend"`
	Models             map[string]ModelStatus `json:"models"`
	ModelsLoaded       int                    `json:"models_loaded"`
	HasScaler          bool                   `json:"has_scaler"`
	HasEncoders        bool                   `json:"has_encoders"`
	HasSimilarityIndex bool                   `json:"has_similarity_index"`
	CatalogSize        int                    `json:"catalog_size"`
	FeatureColumns     int                    `json:"feature_columns"`
	LoadTimeMS         float64                `json:"load_time_ms"`
	LastReload         *time.Time             `json:"last_reload,omitempty"`
	Reloads            int64                  `json:"reloads"`
	Errors             map[string]string      `json:"errors,omitempty"`
}

// Status 返回当前状态，不触发加载。
func (m *Manager) Status() Status {
	st := Status{
		State:      m.State(),
		Backend:    m.store.Name(),
		Models:     make(map[string]ModelStatus, len(ModelKeys)),
		LoadTimeMS: float64(m.loadTime.Load()) / 1000,
		LastReload: m.lastReload.Load(),
		Reloads:    m.reloads.Load(),
	}
	if errs := m.lastErrors.Load(); errs != nil && len(*errs) > 0 {
		st.Errors = maps.Clone(*errs)
	}

	snap := m.snap.Load()
	if snap == nil {
		snap = &Snapshot{}
	}
	for name := range ModelKeys {
		ms := ModelStatus{}
		if tm, ok := snap.Slot(name).Get(); ok {
			trainedAt := tm.TrainedAt
			ms = ModelStatus{
				Loaded:    true,
				Algorithm: tm.Algorithm,
				Samples:   tm.Samples,
				Metrics:   maps.Clone(tm.Metrics),
				TrainedAt: &trainedAt,
			}
		}
		st.Models[name] = ms
		if tm, ok := snap.Slot(name).Get(); ok && tm.Scaler != nil {
			st.HasScaler = true
		}
	}
	st.ModelsLoaded = snap.ModelsLoaded()
	st.Ready = st.ModelsLoaded > 0
	if snap.Preprocessing != nil {
		st.HasScaler = st.HasScaler || snap.Preprocessing.Scaler != nil
		st.HasEncoders = snap.Preprocessing.Encoders != nil && len(snap.Preprocessing.Encoders.LabelMap) > 0
		st.FeatureColumns = len(snap.Preprocessing.FeatureColumns)
	}
	st.HasSimilarityIndex = snap.Similarity != nil
	st.CatalogSize = len(snap.Catalog)
	return st
}
