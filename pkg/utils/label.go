package utils

import "strings"

// Label 是推荐理由：可解释、可追踪、可透传。
// Value 是面向用户的理由文本，Source 是产生它的查询（similar / upsell / crosssell ...）。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source,omitempty"`
}

// MergeLabel 合并两个理由，保留历史：
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积，任一方为空时取另一方
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	merged := Label{Value: existing.Value + "|" + incoming.Value}
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "" || incoming.Source == existing.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// Values 拆分累积的理由
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}
