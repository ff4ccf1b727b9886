package recommend

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Complement 一个类目及其互补类目
type Complement struct {
	Category    string   `yaml:"category"`
	Complements []string `yaml:"complements"`
}

// Complements 互补类目表，按顺序匹配
type Complements []Complement

// DefaultComplements 内置互补类目表
var DefaultComplements = Complements{
	{Category: "Electronics", Complements: []string{"Accessories", "Cables", "Cases"}},
	{Category: "Computers", Complements: []string{"Accessories", "Software", "Peripherals"}},
	{Category: "Phones", Complements: []string{"Cases", "Chargers", "Accessories"}},
	{Category: "Clothing", Complements: []string{"Accessories", "Shoes", "Jewelry"}},
	{Category: "Sports", Complements: []string{"Fitness", "Outdoors", "Clothing"}},
	{Category: "Home", Complements: []string{"Kitchen", "Garden", "Decor"}},
	{Category: "Books", Complements: []string{"Kindle", "Audiobooks", "Stationery"}},
}

// fallbackComplements 未匹配到时取其他类目的个数
const fallbackComplements = 5

// LoadComplements 从 YAML 文件读取互补类目表：
//
//   - category: Electronics
//     complements: [Accessories, Cables]
func LoadComplements(path string) (Complements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseComplements(data)
}

// ParseComplements 解析 YAML 互补类目表
func ParseComplements(data []byte) (Complements, error) {
	var c Complements
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse complements: %w", err)
	}
	for i, entry := range c {
		if strings.TrimSpace(entry.Category) == "" {
			return nil, fmt.Errorf("parse complements: entry %d has no category", i)
		}
	}
	return c, nil
}

// For 返回 category 的互补类目。匹配不区分大小写，任一方包含另一方即可；
// 未匹配时返回目录中其他类目（排序后）的前 5 个。
func (c Complements) For(category string, catalog []string) []string {
	lower := strings.ToLower(category)
	for _, entry := range c {
		key := strings.ToLower(entry.Category)
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			return entry.Complements
		}
	}
	others := make([]string, 0, len(catalog))
	for _, cat := range catalog {
		if cat != category {
			others = append(others, cat)
		}
	}
	sort.Strings(others)
	if len(others) > fallbackComplements {
		others = others[:fallbackComplements]
	}
	return others
}
