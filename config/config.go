// Package config 加载 shopsense 的运行配置并构建各组件。
//
// 加载顺序（后者覆盖前者）：
//  1. 内置默认值（Default）
//  2. YAML 配置文件（--config 或 SHOPSENSE_CONFIG）
//  3. 环境变量：SHOPSENSE_ 前缀，"__" 表示层级，例如
//     SHOPSENSE_STORAGE__BACKEND=redis → storage.backend
//     SHOPSENSE_TRAINING__TEST_RATIO=0.25 → training.test_ratio
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/shopsense/pkg/logger"
	"github.com/rushteam/shopsense/train"
)

const (
	// EnvPrefix 环境变量前缀
	EnvPrefix = "SHOPSENSE_"
	// ConfigPathEnvVar 配置文件路径环境变量
	ConfigPathEnvVar = "SHOPSENSE_CONFIG"
)

// Config 全部配置
type Config struct {
	Log       logger.Config   `koanf:"log"`
	Storage   StorageConfig   `koanf:"storage"`
	Training  train.Config    `koanf:"training"`
	Recommend RecommendConfig `koanf:"recommend"`
	Feast     FeastConfig     `koanf:"feast"`
}

// StorageConfig 模型产物存储
type StorageConfig struct {
	// Backend file | badger | redis | memory
	Backend string `koanf:"backend"`
	// Dir file 后端的目录
	Dir string `koanf:"dir"`
	// BadgerPath badger 数据目录，为空时使用内存模式
	BadgerPath string `koanf:"badger_path"`
	RedisAddr  string `koanf:"redis_addr"`
	RedisDB    int    `koanf:"redis_db"`
	// KeyPrefix redis/badger 的 key 前缀
	KeyPrefix string `koanf:"key_prefix"`
}

// RecommendConfig 推荐引擎
type RecommendConfig struct {
	// ComplementsFile 互补类目表（YAML），为空时使用内置表
	ComplementsFile string `koanf:"complements_file"`
	// Filter 候选过滤 CEL 表达式，例如 "product.stock > 0.0"
	Filter      string `koanf:"filter"`
	TrendingKey string `koanf:"trending_key"`
	TrendingTop int    `koanf:"trending_top"`
}

// FeastConfig 在线特征库，Endpoint 为空时不启用
type FeastConfig struct {
	Endpoint  string            `koanf:"endpoint"`
	Project   string            `koanf:"project"`
	EntityKey string            `koanf:"entity_key"`
	Token     string            `koanf:"token"`
	TLS       bool              `koanf:"tls"`
	Timeout   time.Duration     `koanf:"timeout"`
	Features  map[string]string `koanf:"features"`
}

// Default 内置默认配置
func Default() *Config {
	return &Config{
		Log: logger.Config{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Storage: StorageConfig{
			Backend:   BackendFile,
			Dir:       "data/models",
			RedisAddr: "localhost:6379",
			KeyPrefix: "shopsense:",
		},
		Training: train.DefaultConfig(),
		Recommend: RecommendConfig{
			TrendingKey: "trending:products",
			TrendingTop: 100,
		},
		Feast: FeastConfig{
			EntityKey: "product_id",
			Timeout:   2 * time.Second,
		},
	}
}

// Load 加载配置。path 为空时读取 SHOPSENSE_CONFIG；仍为空则只使用默认值和环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey SHOPSENSE_STORAGE__REDIS_ADDR → storage.redis_addr；返回空串表示忽略
func envKey(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate 校验配置
func (c *Config) Validate() error {
	if _, ok := lookupStore(c.Storage.Backend); !ok {
		return fmt.Errorf("unsupported storage backend %q (supported: %v)", c.Storage.Backend, SupportedBackends())
	}
	if c.Storage.Backend == BackendFile && c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required for the file backend")
	}
	t := c.Training
	if t.TestRatio <= 0 || t.TestRatio >= 1 {
		return fmt.Errorf("training.test_ratio must be in (0, 1), got %v", t.TestRatio)
	}
	if t.NEstimators <= 0 {
		return fmt.Errorf("training.n_estimators must be positive")
	}
	switch t.PriceAlgorithm {
	case train.AlgoRF, train.AlgoGB:
	default:
		return fmt.Errorf("training.price_algorithm must be %q or %q", train.AlgoRF, train.AlgoGB)
	}
	switch t.BestsellerAlgorithm {
	case train.AlgoRF, train.AlgoLR:
	default:
		return fmt.Errorf("training.bestseller_algorithm must be %q or %q", train.AlgoRF, train.AlgoLR)
	}
	if c.Feast.Endpoint != "" && len(c.Feast.Features) == 0 {
		return fmt.Errorf("feast.features is required when feast.endpoint is set")
	}
	return nil
}
