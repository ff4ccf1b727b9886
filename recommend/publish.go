package recommend

import (
	"context"
	"fmt"

	"github.com/rushteam/shopsense/core"
)

// DefaultTrendingKey 热门榜有序集合的默认 key
const DefaultTrendingKey = "trending:products"

// PublishTrending 用当前目录前 n 个热门商品的热度分整体替换有序集合，返回写入条数。
// 旧目录中的商品不会残留在榜单上。下游通过 HotProducts（或直接 ZREVRANGE）读取热门榜。
func (e *Engine) PublishTrending(ctx context.Context, kv core.KeyValueStore, key string, n int) (int, error) {
	if key == "" {
		key = DefaultTrendingKey
	}
	recs := e.Trending(n)

	if r, ok := kv.(core.SortedSetReplacer); ok {
		members := make(map[string]float64, len(recs))
		for _, rec := range recs {
			members[rec.ProductID] = rec.Score
		}
		if err := r.ZReplace(ctx, key, members); err != nil {
			return 0, fmt.Errorf("publish trending: %w", err)
		}
		return len(recs), nil
	}

	if err := kv.Delete(ctx, key); err != nil && !core.IsStoreNotFound(err) {
		return 0, fmt.Errorf("publish trending: clear %s: %w", key, err)
	}
	for _, r := range recs {
		if err := kv.ZAdd(ctx, key, r.Score, r.ProductID); err != nil {
			return 0, fmt.Errorf("publish trending %s: %w", r.ProductID, err)
		}
	}
	return len(recs), nil
}

// HotProducts 读取热门榜前 n 个商品 id（按热度分降序）
func HotProducts(ctx context.Context, kv core.KeyValueStore, key string, n int) ([]string, error) {
	if key == "" {
		key = DefaultTrendingKey
	}
	if n <= 0 {
		n = DefaultTrendingLimit
	}
	ids, err := kv.ZRange(ctx, key, 0, int64(n-1))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("hot products: %w", err)
	}
	return ids, nil
}
