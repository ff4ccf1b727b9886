// Package train 从一批商品记录离线训练全部模型，并把产物写回模型存储的持久化位置。
//
// 训练从不修改在线状态：调用方在训练完成后显式调用 modelstore.Manager.Reload。
package train

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
	"github.com/rushteam/shopsense/metrics"
	"github.com/rushteam/shopsense/model"
	"github.com/rushteam/shopsense/modelstore"
	"github.com/rushteam/shopsense/pkg/logger"
)

// 算法选项
const (
	AlgoRF = "rf"
	AlgoGB = "gb"
	AlgoLR = "lr"
)

// 训练样本下限
const (
	MinRegressionSamples  = 20
	MinBestsellerSamples  = 30
	MinBestsellerPositive = 5
)

// 辅助产物在结果中的名字
const (
	NamePreprocessing = "preprocessing"
	NameSimilarity    = "similarity_index"
	NameCatalog       = "catalog"
)

// Config 训练参数
type Config struct {
	Seed                int64   `koanf:"seed"`
	TestRatio           float64 `koanf:"test_ratio"`
	BestsellerThreshold int     `koanf:"bestseller_threshold"`
	NEstimators         int     `koanf:"n_estimators"`
	MaxDepth            int     `koanf:"max_depth"`
	MinSamplesSplit     int     `koanf:"min_samples_split"`
	PriceAlgorithm      string  `koanf:"price_algorithm"`
	BestsellerAlgorithm string  `koanf:"bestseller_algorithm"`
}

// DefaultConfig 默认参数
func DefaultConfig() Config {
	return Config{
		Seed:                42,
		TestRatio:           0.2,
		BestsellerThreshold: 100,
		NEstimators:         100,
		MaxDepth:            10,
		MinSamplesSplit:     5,
		PriceAlgorithm:      AlgoRF,
		BestsellerAlgorithm: AlgoRF,
	}
}

// Result 单个产物的训练结果。失败时 Error 非空，不影响其他模型。
type Result struct {
	Model        string             `json:"model"`
	Success      bool               `json:"success"`
	Algorithm    string             `json:"algorithm,omitempty"`
	Key          string             `json:"key,omitempty"`
	Samples      int                `json:"samples"`
	TrainSamples int                `json:"train_samples,omitempty"`
	TestSamples  int                `json:"test_samples,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// Trainer 训练流程
type Trainer struct {
	writer modelstore.ArtifactWriter
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// Option 配置 Trainer
type Option func(*Trainer)

func WithConfig(cfg Config) Option {
	return func(t *Trainer) { t.cfg = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

// NewTrainer 创建训练器，产物通过 writer 持久化
func NewTrainer(writer modelstore.ArtifactWriter, opts ...Option) *Trainer {
	t := &Trainer{writer: writer, cfg: DefaultConfig(), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logger.OrNop(t.logger)
	if t.cfg.TestRatio <= 0 || t.cfg.TestRatio >= 1 {
		t.cfg.TestRatio = 0.2
	}
	if t.cfg.BestsellerThreshold <= 0 {
		t.cfg.BestsellerThreshold = 100
	}
	return t
}

// TrainAll 训练全部模型。各模型相互独立、并发训练；
// 返回 模型名 → 结果，包括预处理、相似度索引、目录快照三个辅助产物。
func (t *Trainer) TrainAll(ctx context.Context, products []core.Product) map[string]Result {
	products = withIDs(products)
	trainedAt := t.now().UTC()
	t.logger.Info("training started", zap.Int("products", len(products)))

	enc := feature.NewLabelEncoder(nil)
	categories := make([]string, len(products))
	for i, p := range products {
		categories[i] = p.CategoryOrUnknown()
	}
	enc.Fit(feature.CategoryKey, categories)

	results := make(map[string]Result)
	results[NamePreprocessing] = t.savePreprocessing(ctx, enc, len(products), trainedAt)

	jobs := []struct {
		name string
		run  func(context.Context) Result
	}{
		{modelstore.NamePrice, func(ctx context.Context) Result { return t.trainPrice(ctx, products, enc, trainedAt) }},
		{modelstore.NameDemand, func(ctx context.Context) Result { return t.trainDemand(ctx, products, enc, trainedAt) }},
		{modelstore.NameBestseller, func(ctx context.Context) Result { return t.trainBestseller(ctx, products, enc, trainedAt) }},
		{modelstore.NameRank, func(ctx context.Context) Result { return t.trainRank(ctx, products, enc, trainedAt) }},
		{NameSimilarity, func(ctx context.Context) Result { return t.saveSimilarity(ctx, products, trainedAt) }},
		{NameCatalog, func(ctx context.Context) Result { return t.saveCatalog(ctx, products) }},
	}

	out := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res := job.run(gctx)
			res.Model = job.name
			out[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range out {
		results[res.Model] = res
		if _, isModel := modelstore.ModelKeys[res.Model]; isModel {
			metrics.RecordTraining(res.Model, res.Success)
		}
		if res.Success {
			t.logger.Info("model trained", zap.String("model", res.Model), zap.String("algorithm", res.Algorithm),
				zap.Int("samples", res.Samples), zap.Any("metrics", res.Metrics))
		} else {
			t.logger.Warn("model training failed", zap.String("model", res.Model), zap.String("error", res.Error))
		}
	}
	return results
}

// withIDs 没有 id 的商品用其下标作为 id
func withIDs(products []core.Product) []core.Product {
	out := make([]core.Product, len(products))
	copy(out, products)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = strconv.Itoa(i)
		}
	}
	return out
}

func failed(err error) Result {
	return Result{Error: err.Error()}
}

func insufficient(format string, args ...interface{}) Result {
	return failed(core.NewDomainError(core.ModuleTrain, core.ErrorCodeInsufficientData, fmt.Sprintf(format, args...)))
}

func (t *Trainer) savePreprocessing(ctx context.Context, enc *feature.LabelEncoder, n int, trainedAt time.Time) Result {
	data, err := model.EncodePreprocessing(&model.Preprocessing{
		Encoders:       enc,
		FeatureColumns: feature.PriceSchema.Clone(),
		TrainedAt:      trainedAt,
	})
	if err == nil {
		err = t.writer.Save(ctx, modelstore.KeyPreprocessing, data)
	}
	if err != nil {
		return Result{Model: NamePreprocessing, Error: err.Error()}
	}
	return Result{Model: NamePreprocessing, Success: true, Key: modelstore.KeyPreprocessing, Samples: n}
}

func (t *Trainer) saveSimilarity(ctx context.Context, products []core.Product, trainedAt time.Time) Result {
	idx, err := model.BuildEmbeddingIndex(products)
	if err != nil {
		return failed(err)
	}
	res, err := t.persist(ctx, modelstore.KeySimilarity, &model.Artifact{
		Name:           NameSimilarity,
		FeatureColumns: idx.Schema,
		Samples:        idx.Len(),
		TrainedAt:      trainedAt,
		Estimator:      idx,
	})
	if err != nil {
		return failed(err)
	}
	return res
}

func (t *Trainer) saveCatalog(ctx context.Context, products []core.Product) Result {
	data, err := modelstore.EncodeCatalog(products)
	if err == nil {
		err = t.writer.Save(ctx, modelstore.KeyCatalog, data)
	}
	if err != nil {
		return failed(err)
	}
	return Result{Success: true, Key: modelstore.KeyCatalog, Samples: len(products)}
}

func (t *Trainer) persist(ctx context.Context, key string, a *model.Artifact) (Result, error) {
	data, err := model.Encode(a)
	if err != nil {
		return Result{}, err
	}
	if err := t.writer.Save(ctx, key, data); err != nil {
		return Result{}, err
	}
	algo := a.Algorithm
	if algo == "" {
		algo = a.Estimator.Algorithm()
	}
	return Result{Success: true, Algorithm: algo, Key: key, Samples: a.Samples, Metrics: a.Metrics}, nil
}
