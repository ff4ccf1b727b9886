// Package conv 把在线特征库、外部 JSON 等返回的弱类型值转换为商品字段需要的类型。
package conv

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat64 将 any 转为 float64。
// 支持各整数/浮点类型与数字字符串；bool 视为 1.0/0.0；NaN/Inf 视为失败。
func ToFloat64(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case int32:
		f = float64(val)
	case bool:
		if val {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToInt 将 any 转为 int，浮点数四舍五入。
func ToInt(v any) (int, bool) {
	if i, ok := v.(int); ok {
		return i, true
	}
	f, ok := ToFloat64(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// ToString 将 any 转为 string。
// 支持 string 与 []byte，否则返回 ("", false)。
func ToString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	default:
		return "", false
	}
}
