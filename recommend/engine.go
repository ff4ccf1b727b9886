package recommend

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/metrics"
	"github.com/rushteam/shopsense/pkg/dsl"
	"github.com/rushteam/shopsense/pkg/utils"
)

// 默认返回条数
const (
	DefaultSimilarLimit   = 10
	DefaultUpsellLimit    = 5
	DefaultCrosssellLimit = 5
	DefaultCategoryLimit  = 10
	DefaultTrendingLimit  = 20
	DefaultDealsLimit     = 20
)

// Recommendation 一条推荐结果。Score 的含义随查询而定：
// 相似度、升级性价比、评分、热度分或折扣分。
type Recommendation struct {
	ProductID            string      `json:"id"`
	Title                string      `json:"title"`
	Category             string      `json:"category,omitempty"`
	Price                float64     `json:"price"`
	Rating               float64     `json:"rating"`
	Rank                 int         `json:"rank,omitempty"`
	ReviewCount          int         `json:"review_count,omitempty"`
	Score                float64     `json:"score"`
	PriceIncreasePercent float64     `json:"price_increase_percent,omitempty"`
	CategoryMedian       float64     `json:"category_median,omitempty"`
	SavingsPercent       float64     `json:"savings_percent,omitempty"`
	Reason               utils.Label `json:"reason"`
}

// Comprehensive 单个商品的综合推荐
type Comprehensive struct {
	Product            core.Product     `json:"product"`
	Similar            []Recommendation `json:"similar"`
	Upsell             []Recommendation `json:"upsell"`
	Crosssell          []Recommendation `json:"crosssell"`
	TrendingInCategory []Recommendation `json:"trending_in_category"`
}

// Engine 推荐引擎。
//
// 设计原则：
//   - 目录快照（*Index）通过 atomic.Pointer 整体替换，查询开始时取一次引用
//   - 查询是快照上的纯函数，不修改快照，可并发调用
//   - 可选的 CEL 过滤器作用于所有候选；表达式求值出错的候选被排除
//
// 使用场景：
//   - 详情页：Similar / Upsell / Crosssell / Comprehensive
//   - 首页与频道页：Trending / Deals / Category
//   - 热门榜：PublishTrending 写入有序集合，HotProducts 读取
type Engine struct {
	index       atomic.Pointer[Index]
	complements Complements
	filter      *dsl.Eval
	logger      *zap.Logger
}

// Option 配置 Engine
type Option func(*Engine)

// WithComplements 替换内置互补类目表
func WithComplements(c Complements) Option {
	return func(e *Engine) {
		if len(c) > 0 {
			e.complements = c
		}
	}
}

// WithFilter 设置候选过滤器；nil 表示不过滤
func WithFilter(f *dsl.Eval) Option {
	return func(e *Engine) { e.filter = f }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine 创建引擎，初始为空目录
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		complements: DefaultComplements,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.index.Store(NewIndex(nil))
	return e
}

// Index 用 products 重建目录快照并原子替换
func (e *Engine) Index(products []core.Product) *Index {
	idx := NewIndex(products)
	e.index.Store(idx)
	metrics.CatalogProducts.Set(float64(idx.Len()))
	e.logger.Info("catalog indexed",
		zap.Int("products", idx.Len()),
		zap.Int("categories", len(idx.Categories())))
	return idx
}

// Current 当前目录快照
func (e *Engine) Current() *Index {
	return e.index.Load()
}

// keep 判断候选是否通过过滤器
func (e *Engine) keep(candidate core.Product, source *core.Product) bool {
	if e.filter == nil {
		return true
	}
	ok, err := e.filter.Match(&candidate, source)
	if err != nil {
		e.logger.Debug("filter rejected candidate",
			zap.String("product_id", candidate.ID),
			zap.String("filter", e.filter.String()),
			zap.Error(err))
		return false
	}
	return ok
}

func (e *Engine) lookup(idx *Index, id string) (core.Product, error) {
	p, ok := idx.Product(id)
	if !ok {
		return core.Product{}, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound,
			"recommend: product "+id+" not found")
	}
	return p, nil
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func truncate(recs []Recommendation, limit int) []Recommendation {
	if len(recs) > limit {
		return recs[:limit]
	}
	return recs
}

func newRecommendation(p core.Product, score float64) Recommendation {
	return Recommendation{
		ProductID:   p.ID,
		Title:       p.ShortTitle(titleLen),
		Category:    p.Category,
		Price:       p.Price,
		Rating:      p.Rating,
		Rank:        p.Rank,
		ReviewCount: p.ReviewCount,
		Score:       score,
	}
}

const titleLen = 100

// reason 把多个理由合并成一个 Label
func reason(source string, values ...string) utils.Label {
	var l utils.Label
	for _, v := range values {
		l = utils.MergeLabel(l, utils.Label{Value: v, Source: source})
	}
	return l
}
