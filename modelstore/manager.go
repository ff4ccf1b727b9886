// Package modelstore 持有所有已训练的模型产物，对外只读暴露，并支持显式热重载。
//
// 并发约定：
//   - 快照通过 atomic.Pointer 发布，读者取一次引用后在整个调用期间使用它
//   - mu 只串行化加载/重载本身，预测路径从不持有它
package modelstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/metrics"
	"github.com/rushteam/shopsense/model"
	"github.com/rushteam/shopsense/pkg/logger"
)

// State 模型存储状态机：UNINITIALIZED → LOADING → READY → RELOADING → READY
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateLoading       State = "LOADING"
	StateReady         State = "READY"
	StateReloading     State = "RELOADING"
)

// ArtifactWriter 训练流程持久化产物用的写端口；写入不影响在线快照。
type ArtifactWriter interface {
	Save(ctx context.Context, key string, data []byte) error
}

// Manager 模型存储。显式构造、依赖注入，不是全局单例。
type Manager struct {
	store  core.Store
	logger *zap.Logger

	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]

	state      atomic.Value // State
	loadTime   atomic.Int64 // 最近一次加载耗时（微秒）
	lastReload atomic.Pointer[time.Time]
	reloads    atomic.Int64
	lastErrors atomic.Pointer[map[string]string]
}

// Option 配置 Manager
type Option func(*Manager)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager 创建未加载的 Manager；首次访问 Snapshot 时自动加载。
func NewManager(store core.Store, opts ...Option) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.OrNop(m.logger)
	m.state.Store(StateUninitialized)
	return m
}

// New 创建 Manager 并立即完成首次加载。单个产物加载失败不会导致 New 失败。
func New(ctx context.Context, store core.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, core.NewDomainError(core.ModuleModelStore, core.ErrorCodeInvalidInput, "modelstore: store is nil")
	}
	m := NewManager(store, opts...)
	m.ensureLoaded(ctx)
	return m, nil
}

// State 当前状态
func (m *Manager) State() State {
	return m.state.Load().(State)
}

// Snapshot 返回当前快照。调用方应在一次预测内只取一次。
func (m *Manager) Snapshot() *Snapshot {
	if s := m.snap.Load(); s != nil {
		return s
	}
	return m.ensureLoaded(context.Background())
}

func (m *Manager) ensureLoaded(ctx context.Context) *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.snap.Load(); s != nil {
		return s
	}
	return m.loadLocked(ctx, StateLoading)
}

// IsReady 至少加载了一个预测模型时为 true。零模型时服务仍可用（全部走启发式）。
func (m *Manager) IsReady() bool {
	s := m.snap.Load()
	return s != nil && s.ModelsLoaded() > 0
}

// Reload 重新执行完整加载流程并原子替换快照。
// 单个产物读取或解码失败时保留之前已加载的版本；产物不存在时该槽位置空。
func (m *Manager) Reload(ctx context.Context) *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := StateReloading
	if m.snap.Load() == nil {
		state = StateLoading
	}
	snap := m.loadLocked(ctx, state)
	m.reloads.Add(1)
	return snap
}

// Save 持久化产物（ArtifactWriter）。不修改在线快照，调用方需要显式 Reload。
func (m *Manager) Save(ctx context.Context, key string, data []byte) error {
	if err := m.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("modelstore: save %s: %w", key, err)
	}
	return nil
}

func (m *Manager) loadLocked(ctx context.Context, state State) *Snapshot {
	m.state.Store(state)
	start := time.Now()
	prev := m.snap.Load()
	if prev == nil {
		prev = &Snapshot{}
	}
	errs := make(map[string]string)

	next := &Snapshot{
		Price:      m.loadSlot(ctx, NamePrice, KeyPrice, prev.Price, errs),
		Demand:     m.loadSlot(ctx, NameDemand, KeyDemand, prev.Demand, errs),
		Bestseller: m.loadSlot(ctx, NameBestseller, KeyBestseller, prev.Bestseller, errs),
		Rank:       m.loadSlot(ctx, NameRank, KeyRank, prev.Rank, errs),
	}
	next.Preprocessing = loadAux(ctx, m, KeyPreprocessing, prev.Preprocessing, errs, model.DecodePreprocessing)
	next.Similarity = loadAux(ctx, m, KeySimilarity, prev.Similarity, errs, decodeSimilarity)
	next.Catalog = loadAux(ctx, m, KeyCatalog, prev.Catalog, errs, DecodeCatalog)

	now := time.Now()
	next.LoadedAt = now
	m.snap.Store(next)
	m.lastErrors.Store(&errs)
	m.lastReload.Store(&now)
	m.loadTime.Store(time.Since(start).Microseconds())
	m.state.Store(StateReady)

	metrics.RecordReload(len(errs) == 0, next.ModelsLoaded())
	m.logger.Info("model store loaded",
		zap.String("backend", m.store.Name()),
		zap.Int("models_loaded", next.ModelsLoaded()),
		zap.Int("errors", len(errs)),
		zap.Duration("took", time.Since(start)),
	)
	return next
}

func (m *Manager) loadSlot(ctx context.Context, name, key string, prev Slot, errs map[string]string) Slot {
	data, err := m.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			m.logger.Debug("artifact not found", zap.String("model", name), zap.String("key", key))
			return Absent()
		}
		return m.keepPrevious(name, key, prev, err, errs)
	}
	a, err := model.Decode(data)
	if err == nil {
		err = checkKind(name, a.Estimator)
	}
	if err != nil {
		return m.keepPrevious(name, key, prev, err, errs)
	}
	if a.Name == "" {
		a.Name = name
	}
	return Loaded(fromArtifact(key, a))
}

func (m *Manager) keepPrevious(name, key string, prev Slot, err error, errs map[string]string) Slot {
	errs[name] = err.Error()
	m.logger.Warn("failed to load model",
		zap.String("model", name),
		zap.String("key", key),
		zap.Bool("kept_previous", prev.IsLoaded()),
		zap.Error(err),
	)
	return prev
}

func checkKind(name string, est model.Estimator) error {
	var ok bool
	switch name {
	case NameBestseller:
		_, ok = est.(model.Classifier)
	default:
		_, ok = est.(model.Regressor)
	}
	if !ok {
		return core.NewDomainError(core.ModuleModelStore, core.ErrorCodeInvalidInput,
			fmt.Sprintf("%s: algorithm %s cannot serve this model", name, est.Algorithm()))
	}
	return nil
}

func decodeSimilarity(data []byte) (*model.EmbeddingIndex, error) {
	a, err := model.Decode(data)
	if err != nil {
		return nil, err
	}
	idx, ok := a.Estimator.(*model.EmbeddingIndex)
	if !ok {
		return nil, core.NewDomainError(core.ModuleModelStore, core.ErrorCodeInvalidInput, "similarity index has algorithm "+a.Algorithm)
	}
	return idx, nil
}

// loadAux 加载辅助产物（预处理、相似度索引、目录快照），失败语义与模型槽位一致。
func loadAux[T any](ctx context.Context, m *Manager, key string, prev T, errs map[string]string, decode func([]byte) (T, error)) T {
	var zero T
	data, err := m.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return zero
		}
		errs[key] = err.Error()
		m.logger.Warn("failed to read artifact", zap.String("key", key), zap.Error(err))
		return prev
	}
	v, err := decode(data)
	if err != nil {
		errs[key] = err.Error()
		m.logger.Warn("failed to decode artifact", zap.String("key", key), zap.Error(err))
		return prev
	}
	return v
}

var _ ArtifactWriter = (*Manager)(nil)
