// Package store 提供 core.Store / core.KeyValueStore 的基础设施实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var s core.Store = store.NewFileStore("data/models")
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store

import "github.com/rushteam/shopsense/core"

var (
	// ErrNotFound 是 core.ErrStoreNotFound 的包内别名
	ErrNotFound = core.ErrStoreNotFound
)
