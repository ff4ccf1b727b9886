package feature

import "sort"

// LabelEncoder Label 编码（标签编码）
// 将类别映射为整数（0, 1, 2, ...），类别按字典序排列。
type LabelEncoder struct {
	LabelMap map[string]map[string]int `json:"label_map"` // 每个特征名对应的类别到整数的映射
}

// NewLabelEncoder 创建 Label 编码器
func NewLabelEncoder(labelMap map[string]map[string]int) *LabelEncoder {
	if labelMap == nil {
		labelMap = make(map[string]map[string]int)
	}
	return &LabelEncoder{
		LabelMap: labelMap,
	}
}

// Fit 用观测到的取值拟合 key 对应的映射（覆盖旧映射）。
func (e *LabelEncoder) Fit(key string, values []string) {
	if e.LabelMap == nil {
		e.LabelMap = make(map[string]map[string]int)
	}
	uniq := make(map[string]struct{}, len(values))
	for _, v := range values {
		uniq[v] = struct{}{}
	}
	classes := make([]string, 0, len(uniq))
	for v := range uniq {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	m := make(map[string]int, len(classes))
	for i, c := range classes {
		m[c] = i
	}
	e.LabelMap[key] = m
}

// Transform 编码单个值；未知特征或未知类别返回 0。
func (e *LabelEncoder) Transform(key, value string) float64 {
	if e == nil {
		return 0
	}
	labelMap, ok := e.LabelMap[key]
	if !ok {
		return 0
	}
	if label, ok := labelMap[value]; ok {
		return float64(label)
	}
	return 0 // 未知类别默认为 0
}

// Classes 返回 key 的类别列表（按编码顺序）。
func (e *LabelEncoder) Classes(key string) []string {
	if e == nil {
		return nil
	}
	m := e.LabelMap[key]
	classes := make([]string, len(m))
	for c, i := range m {
		if i >= 0 && i < len(classes) {
			classes[i] = c
		}
	}
	return classes
}

// EncodeWithKey 编码单个特征，返回 {key: label}，未知类别编码为 0。
func (e *LabelEncoder) EncodeWithKey(key string, value interface{}) map[string]float64 {
	s, ok := value.(string)
	if !ok {
		return map[string]float64{key: 0}
	}
	return map[string]float64{key: e.Transform(key, s)}
}
