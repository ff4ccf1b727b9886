package feature

import (
	"fmt"
	"math"

	"github.com/rushteam/shopsense/core"
)

// Vector 是按 Schema 顺序排列的数值特征，每次调用即时计算，不持久化。
type Vector []float64

// PrepError 表示特征准备遇到无法用默认值兜底的错误（非有限数值、维度不匹配）。
// 预测服务遇到 PrepError 时走启发式分支。
type PrepError struct {
	Column string
	Reason string
}

func (e *PrepError) Error() string {
	if e.Column == "" {
		return "feature: " + e.Reason
	}
	return fmt.Sprintf("feature: column %q: %s", e.Column, e.Reason)
}

func (e *PrepError) Unwrap() error {
	return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, e.Error())
}

// Prepare 把 Product 转成 schema 顺序的特征向量。
//
//   - 缺失字段使用默认值（rating=4.0, reviews=100, rank=5000, price=100），不报错
//   - 训练时未见过的类目编码为 0
//   - scaler 非空时对结果做标准化；scaler 为空不是错误
//   - schema 为空时使用 DefaultSchema
func Prepare(p core.Product, schema Schema, enc *LabelEncoder, scaler *StandardScaler) (Vector, error) {
	if len(schema) == 0 {
		schema = DefaultSchema
	}

	vec := make(Vector, len(schema))
	for i, col := range schema {
		v := Value(p, col, enc)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &PrepError{Column: col, Reason: "value is not finite"}
		}
		vec[i] = v
	}

	if scaler == nil {
		return vec, nil
	}
	scaled, err := scaler.Transform(vec)
	if err != nil {
		return nil, &PrepError{Reason: err.Error()}
	}
	return scaled, nil
}

// Value 计算单列的原始特征值（不做标准化）。
func Value(p core.Product, col string, enc *LabelEncoder) float64 {
	switch col {
	case ColRating:
		return p.RatingOr(core.DefaultRating)
	case ColReviews:
		return float64(p.ReviewsOr(core.DefaultReviews))
	case ColLogReviews:
		return math.Log1p(float64(p.ReviewsOr(core.DefaultReviews)))
	case ColRank:
		return float64(p.RankOr(core.DefaultRank))
	case ColLogRank:
		return math.Log1p(float64(p.RankOr(core.DefaultRank)))
	case ColPrice:
		return p.PriceOr(core.DefaultPrice)
	case ColStock:
		if p.Stock < 0 {
			return 0
		}
		return float64(p.Stock)
	case ColCategoryEncoded:
		if enc == nil {
			return 0
		}
		return enc.Transform(CategoryKey, p.CategoryOrUnknown())
	default:
		return p.Extra[col]
	}
}

// Matrix 批量准备特征（训练用）。遇到第一个 PrepError 即返回。
func Matrix(products []core.Product, schema Schema, enc *LabelEncoder) ([][]float64, error) {
	out := make([][]float64, 0, len(products))
	for _, p := range products {
		v, err := Prepare(p, schema, enc, nil)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
