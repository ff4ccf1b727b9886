package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rushteam/shopsense/core"
)

// BadgerStore 是基于 badger 的嵌入式 KV 实现，适合单机部署：
// 模型产物与目录快照落在同一个数据目录里，带 TTL 支持。
type BadgerStore struct {
	db     *badger.DB
	prefix []byte
	owned  bool
}

// OpenBadgerStore 打开（或创建）path 下的 badger 数据库。path 为空时使用内存模式；
// prefix 为空时使用 "shopsense:"。
func OpenBadgerStore(path, prefix string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "shopsense:"
	}
	s := NewBadgerStore(db, prefix)
	s.owned = true
	return s, nil
}

// NewBadgerStore 复用已打开的 badger.DB；Close 不会关闭外部传入的 db。
func NewBadgerStore(db *badger.DB, prefix string) *BadgerStore {
	return &BadgerStore{db: db, prefix: []byte(prefix)}
}

func (s *BadgerStore) Name() string { return "badger" }

func (s *BadgerStore) key(k string) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	out = append(out, s.prefix...)
	return append(out, k...)
}

func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (s *BadgerStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(s.entry(key, value, ttl))
	})
}

func (s *BadgerStore) entry(key string, value []byte, ttl []int) *badger.Entry {
	e := badger.NewEntry(s.key(key), value)
	if len(ttl) > 0 && ttl[0] > 0 {
		e = e.WithTTL(time.Duration(ttl[0]) * time.Second)
	}
	return e
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(s.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (s *BadgerStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get(s.key(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BadgerStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for k, v := range kvs {
			if err := txn.SetEntry(s.entry(k, v, ttl)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

var _ core.Store = (*BadgerStore)(nil)
