// Package predict 提供价格、需求、爆款、排名四个预测器。
//
// 每个预测器遵循同一模板：
//  1. 从模型存储取一次快照（整个调用期间只用这一份引用）
//  2. 槽位为 Loaded 且特征准备成功 → 训练模型分支
//  3. 槽位为 Absent 或特征准备返回 PrepError → 启发式分支
//  4. 始终返回同构的结果，ModelUsed 标记来源
//
// 公共方法内部 recover 所有 panic，转换为 Success=false 的结果。
package predict

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
	"github.com/rushteam/shopsense/metrics"
	"github.com/rushteam/shopsense/modelstore"
	"github.com/rushteam/shopsense/pkg/logger"
)

// ModelSource 提供模型快照。*modelstore.Manager 实现了它。
type ModelSource interface {
	Snapshot() *modelstore.Snapshot
}

// Service 预测服务，无内部可变状态，可并发调用。
type Service struct {
	models   ModelSource
	enricher feature.Enricher
	logger   *zap.Logger
	now      func() time.Time
}

// Option 配置 Service
type Option func(*Service)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEnricher 在特征准备前补全商品缺失字段（例如 Feast 在线特征）
func WithEnricher(e feature.Enricher) Option {
	return func(s *Service) { s.enricher = e }
}

// WithClock 替换时钟（需求预测的日期序列依赖它）
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService 创建预测服务
func NewService(models ModelSource, opts ...Option) *Service {
	s := &Service{models: models, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger)
	return s
}

func (s *Service) snapshot() *modelstore.Snapshot {
	if s.models == nil {
		return &modelstore.Snapshot{}
	}
	if snap := s.models.Snapshot(); snap != nil {
		return snap
	}
	return &modelstore.Snapshot{}
}

// enrich 补全失败只记日志，继续使用原始商品。
func (s *Service) enrich(ctx context.Context, p core.Product) core.Product {
	p = sanitize(p)
	if s.enricher == nil {
		return p
	}
	enriched, err := s.enricher.Enrich(ctx, p)
	if err != nil {
		s.logger.Warn("product enrichment failed", zap.String("product_id", p.ID), zap.Error(err))
		return p
	}
	return sanitize(enriched)
}

// sanitize 把 NaN/Inf 的评分与价格归为缺失（0），后续按默认值处理。
func sanitize(p core.Product) core.Product {
	p.Rating = p.RatingOr(0)
	p.Price = p.PriceOr(0)
	return p
}

// features 为训练模型准备特征。模型自带 scaler 优先，否则用共享 scaler。
func features(snap *modelstore.Snapshot, tm *modelstore.TrainedModel, p core.Product) (feature.Vector, error) {
	scaler := tm.Scaler
	if scaler == nil {
		scaler = snap.SharedScaler()
	}
	return feature.Prepare(p, tm.Schema, snap.Encoders(), scaler)
}

// finish 记录指标，并把 panic 转换为失败结果。必须以 defer 调用。
func (s *Service) finish(predictor string, start time.Time, base *Base) {
	if r := recover(); r != nil {
		*base = Base{Success: false, ModelUsed: base.ModelUsed, Error: fmt.Sprintf("%s prediction failed: %v", predictor, r)}
		s.logger.Error("prediction panicked", zap.String("predictor", predictor), zap.Any("panic", r))
	}
	source := metrics.SourceTrained
	switch {
	case !base.Success:
		source = metrics.SourceError
	case base.IsHeuristic():
		source = metrics.SourceHeuristic
	}
	metrics.RecordPrediction(predictor, source, time.Since(start))
}

func (s *Service) fallbackReason(predictor string, p core.Product, err error) {
	if err != nil {
		s.logger.Debug("falling back to heuristic",
			zap.String("predictor", predictor),
			zap.String("product_id", p.ID),
			zap.Error(err),
		)
	}
}

func unrecoverable(predictor string, v float64) Base {
	return Base{
		Success:   false,
		ModelUsed: ModelHeuristic,
		Error:     fmt.Sprintf("%s: heuristic produced non-finite value %v", predictor, v),
	}
}
