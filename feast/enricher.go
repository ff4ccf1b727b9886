package feast

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/feature"
	"github.com/rushteam/shopsense/pkg/conv"
)

// 可以映射的商品字段；其他名字写入 Product.Extra
const (
	FieldTitle       = "title"
	FieldPrice       = "price"
	FieldRating      = "rating"
	FieldReviewCount = "review_count"
	FieldRank        = "rank"
	FieldStock       = "stock"
	FieldCategory    = "category"
)

// DefaultEntityKey 商品实体的 join key
const DefaultEntityKey = "product_id"

// ProductEnricher 用 Feast 在线特征补全商品缺失字段，实现 feature.Enricher。
//
// Features 是 特征引用 → 商品字段 的映射，例如：
//
//	"product_stats:rating"       -> "rating"
//	"product_stats:review_count" -> "review_count"
//	"inventory:stock"            -> "stock"
//
// 调用方显式给出的字段不会被覆盖；没有 id 的商品原样返回。
type ProductEnricher struct {
	client    Client
	features  map[string]string
	refs      []string
	entityKey string
	project   string
}

// EnricherOption 配置 ProductEnricher
type EnricherOption func(*ProductEnricher)

// WithEntityKey 设置实体 join key（默认 product_id）
func WithEntityKey(key string) EnricherOption {
	return func(e *ProductEnricher) {
		if key != "" {
			e.entityKey = key
		}
	}
}

// WithProject 覆盖请求的项目名称
func WithProject(project string) EnricherOption {
	return func(e *ProductEnricher) { e.project = project }
}

// NewProductEnricher 创建补全器。features 为空时返回错误。
func NewProductEnricher(client Client, features map[string]string, opts ...EnricherOption) (*ProductEnricher, error) {
	if client == nil {
		return nil, fmt.Errorf("feast: nil client")
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feast: no feature mapping configured")
	}
	e := &ProductEnricher{
		client:    client,
		features:  make(map[string]string, len(features)),
		entityKey: DefaultEntityKey,
	}
	for ref, field := range features {
		e.features[ref] = field
		e.refs = append(e.refs, ref)
	}
	sort.Strings(e.refs)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enrich 实现 feature.Enricher
func (e *ProductEnricher) Enrich(ctx context.Context, p core.Product) (core.Product, error) {
	if p.ID == "" {
		return p, nil
	}
	resp, err := e.client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   e.refs,
		EntityRows: []map[string]interface{}{{e.entityKey: p.ID}},
		Project:    e.project,
	})
	if err != nil {
		return p, err
	}
	if len(resp.FeatureVectors) == 0 {
		return p, nil
	}
	online := e.toProduct(resp.FeatureVectors[0].Values)
	return feature.FillMissing(p, online), nil
}

func (e *ProductEnricher) toProduct(values map[string]interface{}) core.Product {
	var out core.Product
	for ref, raw := range values {
		field, ok := e.features[ref]
		if !ok {
			continue
		}
		switch field {
		case FieldTitle:
			out.Title, _ = conv.ToString(raw)
		case FieldCategory:
			out.Category, _ = conv.ToString(raw)
		case FieldPrice:
			out.Price, _ = conv.ToFloat64(raw)
		case FieldRating:
			out.Rating, _ = conv.ToFloat64(raw)
		case FieldReviewCount:
			out.ReviewCount, _ = conv.ToInt(raw)
		case FieldRank:
			out.Rank, _ = conv.ToInt(raw)
		case FieldStock:
			out.Stock, _ = conv.ToInt(raw)
		default:
			if f, ok := conv.ToFloat64(raw); ok {
				if out.Extra == nil {
					out.Extra = make(map[string]float64)
				}
				out.Extra[field] = f
			}
		}
	}
	return out
}

var _ feature.Enricher = (*ProductEnricher)(nil)
