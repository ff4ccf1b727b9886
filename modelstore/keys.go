package modelstore

// 持久化 key，每个产物一个 key。
const (
	KeyPrice         = "models/price_predictor"
	KeyDemand        = "models/demand_predictor"
	KeyBestseller    = "models/bestseller_classifier"
	KeyRank          = "models/rank_model"
	KeyPreprocessing = "models/preprocessing"
	KeySimilarity    = "models/similarity_index"
	KeyCatalog       = "catalog/products"
)

// 模型名（Status 与训练结果使用）
const (
	NamePrice      = "price_predictor"
	NameDemand     = "demand_predictor"
	NameBestseller = "bestseller_classifier"
	NameRank       = "rank_model"
)

// ModelKeys 模型名到 key 的映射，加载顺序见 Manager.load
var ModelKeys = map[string]string{
	NamePrice:      KeyPrice,
	NameDemand:     KeyDemand,
	NameBestseller: KeyBestseller,
	NameRank:       KeyRank,
}
