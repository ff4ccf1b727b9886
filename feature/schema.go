package feature

// 已知特征列。Schema 中出现的其他列名从 Product.Extra 读取，缺失为 0。
const (
	ColRating          = "rating"
	ColReviews         = "reviews"
	ColLogReviews      = "log_reviews"
	ColRank            = "rank"
	ColLogRank         = "log_rank"
	ColPrice           = "price"
	ColStock           = "stock"
	ColCategoryEncoded = "category_encoded"
)

// CategoryKey 是类目编码器在 LabelEncoder 中的特征名
const CategoryKey = "category"

// Schema 是模型声明的特征列顺序（训练时固定，随模型产物一起持久化）。
type Schema []string

// DefaultSchema 在模型未声明 schema 时使用。
var DefaultSchema = Schema{ColRating, ColReviews, ColCategoryEncoded}

// 各模型的 schema。
var (
	PriceSchema      = Schema{ColRating, ColLogReviews, ColLogRank, ColCategoryEncoded}
	DemandSchema     = Schema{ColPrice, ColRating, ColLogReviews, ColCategoryEncoded}
	BestsellerSchema = Schema{ColRating, ColLogReviews, ColPrice}
	RankSchema       = Schema{ColPrice, ColRating, ColLogReviews, ColStock}
)

// Index 返回列在 schema 中的位置，不存在返回 -1。
func (s Schema) Index(col string) int {
	for i, c := range s {
		if c == col {
			return i
		}
	}
	return -1
}

// Clone 返回副本，避免调用方修改共享的 schema。
func (s Schema) Clone() Schema {
	return append(Schema(nil), s...)
}
