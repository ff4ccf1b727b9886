package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
)

// FormatVersion 产物格式版本，读取时不匹配即视为损坏
const FormatVersion = 1

// Artifact 是一个训练好的模型的持久化形态（JSON）。
//
// 设计原则：
//   - 一个模型一个 key，读写互不影响
//   - 自描述：算法、特征列、标准化参数、评估指标都在产物里
//   - Estimator 的具体结构由算法注册表解码（见 Register）
type Artifact struct {
	FormatVersion  int                     `json:"format_version"`
	Name           string                  `json:"name"`
	Algorithm      string                  `json:"algorithm"`
	FeatureColumns feature.Schema          `json:"feature_columns"`
	Metrics        map[string]float64      `json:"metrics,omitempty"`
	Samples        int                     `json:"samples"`
	TrainedAt      time.Time               `json:"trained_at"`
	Scaler         *feature.StandardScaler `json:"scaler,omitempty"`

	Estimator Estimator       `json:"-"`
	Payload   json.RawMessage `json:"estimator"`
}

// Decoder 把 payload 解码为具体的 Estimator
type Decoder func(payload []byte) (Estimator, error)

var (
	decoders   = make(map[string]Decoder)
	decodersMu sync.RWMutex
)

// Register 注册一种算法的解码器。内置算法在 init 中注册。
func Register(algorithm string, dec Decoder) {
	if algorithm == "" || dec == nil {
		return
	}
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[algorithm] = dec
}

// SupportedAlgorithms 返回已注册的算法（排序）
func SupportedAlgorithms() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	out := make([]string, 0, len(decoders))
	for a := range decoders {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func decoderFor[T Estimator](newT func() T) Decoder {
	return func(payload []byte) (Estimator, error) {
		est := newT()
		if err := json.Unmarshal(payload, est); err != nil {
			return nil, err
		}
		return est, nil
	}
}

func init() {
	Register(AlgoRandomForest, decoderFor(func() *RandomForest { return &RandomForest{} }))
	Register(AlgoRandomForestClassifier, decoderFor(func() *RandomForest { return &RandomForest{Classifier: true} }))
	Register(AlgoGradientBoosting, decoderFor(func() *GradientBoosting { return &GradientBoosting{} }))
	Register(AlgoLogisticRegression, decoderFor(func() *LRModel { return &LRModel{} }))
	Register("EmbeddingIndex", decoderFor(func() *EmbeddingIndex { return &EmbeddingIndex{} }))
}

// Encode 序列化产物；Algorithm 为空时取 Estimator.Algorithm()。
func Encode(a *Artifact) ([]byte, error) {
	if a.Estimator == nil {
		return nil, invalid("artifact %q has no estimator", a.Name)
	}
	payload, err := json.Marshal(a.Estimator)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.Name, err)
	}
	out := *a
	out.FormatVersion = FormatVersion
	out.Payload = payload
	if out.Algorithm == "" {
		out.Algorithm = a.Estimator.Algorithm()
	}
	return json.Marshal(&out)
}

// Decode 反序列化并校验产物。格式错误、未知算法、结构不完整都返回 INVALID_INPUT。
func Decode(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, invalid("decode artifact: %v", err)
	}
	if a.FormatVersion != FormatVersion {
		return nil, invalid("artifact %q: unsupported format version %d", a.Name, a.FormatVersion)
	}
	decodersMu.RLock()
	dec, ok := decoders[a.Algorithm]
	decodersMu.RUnlock()
	if !ok {
		return nil, invalid("artifact %q: unknown algorithm %q (supported: %v)", a.Name, a.Algorithm, SupportedAlgorithms())
	}
	est, err := dec(a.Payload)
	if err != nil {
		return nil, invalid("artifact %q: decode estimator: %v", a.Name, err)
	}
	if err := est.Validate(); err != nil {
		return nil, invalid("artifact %q: %v", a.Name, err)
	}
	if a.Scaler != nil && len(a.FeatureColumns) > 0 && a.Scaler.Width() != len(a.FeatureColumns) {
		return nil, invalid("artifact %q: scaler width %d does not match %d feature columns", a.Name, a.Scaler.Width(), len(a.FeatureColumns))
	}
	a.Estimator = est
	a.Payload = nil
	return &a, nil
}

func invalid(format string, args ...interface{}) error {
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

// Preprocessing 是训练时拟合的共享预处理参数。
type Preprocessing struct {
	FormatVersion  int                     `json:"format_version"`
	Encoders       *feature.LabelEncoder   `json:"encoders"`
	Scaler         *feature.StandardScaler `json:"scaler,omitempty"`
	FeatureColumns feature.Schema          `json:"feature_columns"`
	TrainedAt      time.Time               `json:"trained_at"`
}

func EncodePreprocessing(p *Preprocessing) ([]byte, error) {
	out := *p
	out.FormatVersion = FormatVersion
	return json.Marshal(&out)
}

func DecodePreprocessing(data []byte) (*Preprocessing, error) {
	var p Preprocessing
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, invalid("decode preprocessing: %v", err)
	}
	if p.FormatVersion != FormatVersion {
		return nil, invalid("preprocessing: unsupported format version %d", p.FormatVersion)
	}
	if p.Encoders == nil {
		p.Encoders = feature.NewLabelEncoder(nil)
	}
	if p.Scaler != nil && p.Scaler.Width() != len(p.FeatureColumns) {
		return nil, invalid("preprocessing: scaler width %d does not match %d feature columns", p.Scaler.Width(), len(p.FeatureColumns))
	}
	return &p, nil
}
