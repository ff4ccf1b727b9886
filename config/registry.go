package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/store"
)

// 内置存储后端
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// StoreBuilder 根据存储配置构建一个后端。
// 新后端在 init 中调用 RegisterStore(name, builder) 即可被配置驱动。
type StoreBuilder func(cfg StorageConfig) (core.Store, error)

var (
	storeBuilders   = make(map[string]StoreBuilder)
	storeBuildersMu sync.RWMutex
)

func init() {
	RegisterStore(BackendFile, func(cfg StorageConfig) (core.Store, error) {
		return store.NewFileStore(cfg.Dir), nil
	})
	RegisterStore(BackendBadger, func(cfg StorageConfig) (core.Store, error) {
		return store.OpenBadgerStore(cfg.BadgerPath, cfg.KeyPrefix)
	})
	RegisterStore(BackendRedis, func(cfg StorageConfig) (core.Store, error) {
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, store.WithKeyPrefix(cfg.KeyPrefix))
	})
	RegisterStore(BackendMemory, func(StorageConfig) (core.Store, error) {
		return store.NewMemoryStore(), nil
	})
}

// RegisterStore 注册一种存储后端，同名覆盖
func RegisterStore(name string, builder StoreBuilder) {
	if name == "" || builder == nil {
		return
	}
	storeBuildersMu.Lock()
	defer storeBuildersMu.Unlock()
	storeBuilders[name] = builder
}

// SupportedBackends 返回已注册的后端名称（排序），用于错误提示与校验
func SupportedBackends() []string {
	storeBuildersMu.RLock()
	defer storeBuildersMu.RUnlock()
	names := make([]string, 0, len(storeBuilders))
	for name := range storeBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupStore(name string) (StoreBuilder, bool) {
	storeBuildersMu.RLock()
	defer storeBuildersMu.RUnlock()
	b, ok := storeBuilders[name]
	return b, ok
}

// NewStore 构建配置的存储后端
func NewStore(cfg StorageConfig) (core.Store, error) {
	builder, ok := lookupStore(cfg.Backend)
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend %q (supported: %v)", cfg.Backend, SupportedBackends())
	}
	s, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
