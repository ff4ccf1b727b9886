package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopsense/core"
)

func newStores(t *testing.T) map[string]core.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	rs := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), WithKeyPrefix("test:"))

	bs, err := OpenBadgerStore("", "")
	require.NoError(t, err)

	ms := NewMemoryStore()

	stores := map[string]core.Store{
		"memory": ms,
		"file":   NewFileStore(t.TempDir()),
		"badger": bs,
		"redis":  rs,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_Conformance(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "models/missing")
			assert.True(t, core.IsStoreNotFound(err), "missing key should be not found, got %v", err)

			require.NoError(t, s.Set(ctx, "models/price_predictor", []byte(`{"a":1}`)))
			got, err := s.Get(ctx, "models/price_predictor")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(got))

			// 覆盖写
			require.NoError(t, s.Set(ctx, "models/price_predictor", []byte(`{"a":2}`)))
			got, err = s.Get(ctx, "models/price_predictor")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))

			require.NoError(t, s.BatchSet(ctx, map[string][]byte{
				"catalog/products": []byte("[]"),
				"models/rank":      []byte("{}"),
			}))
			batch, err := s.BatchGet(ctx, []string{"catalog/products", "models/rank", "nope"})
			require.NoError(t, err)
			assert.Len(t, batch, 2)
			assert.Equal(t, "[]", string(batch["catalog/products"]))

			require.NoError(t, s.Delete(ctx, "models/rank"))
			_, err = s.Get(ctx, "models/rank")
			assert.True(t, core.IsStoreNotFound(err))

			// 删除不存在的 key 不报错
			assert.NoError(t, s.Delete(ctx, "models/rank"))
		})
	}
}

func TestKeyValueStore_ZRange(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	kvs := map[string]core.KeyValueStore{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
	}
	for name, kv := range kvs {
		t.Run(name, func(t *testing.T) {
			defer kv.Close()
			require.NoError(t, kv.ZAdd(ctx, "trending", 10, "p1"))
			require.NoError(t, kv.ZAdd(ctx, "trending", 30, "p2"))
			require.NoError(t, kv.ZAdd(ctx, "trending", 20, "p3"))

			top, err := kv.ZRange(ctx, "trending", 0, 1)
			require.NoError(t, err)
			assert.Equal(t, []string{"p2", "p3"}, top)

			all, err := kv.ZRange(ctx, "trending", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"p2", "p3", "p1"}, all)

			score, err := kv.ZScore(ctx, "trending", "p3")
			require.NoError(t, err)
			assert.Equal(t, 20.0, score)

			_, err = kv.ZScore(ctx, "trending", "zz")
			assert.True(t, core.IsStoreNotFound(err))
		})
	}
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	s := NewFileStore(t.TempDir())
	err := s.Set(context.Background(), "../outside", []byte("x"))
	require.Error(t, err)
	de := core.GetDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, core.ErrorCodeInvalidInput, de.Code)
}
