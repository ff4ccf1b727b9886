package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/shopsense/core"
)

// FileStore 把每个 key 存为 Dir 下的一个文件（key 中的 "/" 映射为子目录）。
// 模型产物默认使用此后端：一个模型一个文件，便于人工检查和备份。
// 写入采用临时文件 + rename，读者不会看到写了一半的文件。
// 不支持 TTL，ttl 参数被忽略。
type FileStore struct {
	Dir string
	Ext string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, Ext: ".json"}
}

func (f *FileStore) Name() string { return "file" }

func (f *FileStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, fmt.Sprintf("store: invalid key %q", key))
	}
	return filepath.Join(f.Dir, clean+f.Ext), nil
}

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

func (f *FileStore) Set(ctx context.Context, key string, value []byte, _ ...int) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-"+filepath.Base(p)+"-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", p, err)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, err := f.Get(ctx, k)
		if core.IsStoreNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, nil
}

func (f *FileStore) BatchSet(ctx context.Context, kvs map[string][]byte, _ ...int) error {
	for k, v := range kvs {
		if err := f.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

var _ core.Store = (*FileStore)(nil)
