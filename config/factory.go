package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/shopsense/feast"
	"github.com/rushteam/shopsense/feature"
	"github.com/rushteam/shopsense/pkg/dsl"
	"github.com/rushteam/shopsense/recommend"
)

// NewRecommendEngine 按配置构建推荐引擎（互补类目表、候选过滤器）
func NewRecommendEngine(cfg RecommendConfig, log *zap.Logger) (*recommend.Engine, error) {
	opts := []recommend.Option{recommend.WithLogger(log)}
	if cfg.ComplementsFile != "" {
		c, err := recommend.LoadComplements(cfg.ComplementsFile)
		if err != nil {
			return nil, fmt.Errorf("load complements: %w", err)
		}
		opts = append(opts, recommend.WithComplements(c))
	}
	if cfg.Filter != "" {
		f, err := dsl.Compile(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("recommend.filter: %w", err)
		}
		opts = append(opts, recommend.WithFilter(f))
	}
	return recommend.NewEngine(opts...), nil
}

// NewEnricher 按配置构建 Feast 在线特征补全器；未配置 endpoint 时返回 nil。
// 返回的 close 用于释放连接，未启用时为空操作。
func NewEnricher(cfg FeastConfig) (feature.Enricher, func() error, error) {
	noop := func() error { return nil }
	if cfg.Endpoint == "" {
		return nil, noop, nil
	}
	opts := []feast.ClientOption{feast.WithTimeout(cfg.Timeout)}
	if cfg.Token != "" {
		opts = append(opts, feast.WithAuth(&feast.AuthConfig{Token: cfg.Token, EnableTLS: cfg.TLS}))
	}
	client, err := feast.NewClient(cfg.Endpoint, cfg.Project, opts...)
	if err != nil {
		return nil, noop, err
	}
	enricher, err := feast.NewProductEnricher(client, cfg.Features, feast.WithEntityKey(cfg.EntityKey))
	if err != nil {
		_ = client.Close()
		return nil, noop, err
	}
	return enricher, client.Close, nil
}
