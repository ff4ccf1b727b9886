package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征库的客户端接口。
//
// 本项目只用在线特征（Online Store）：预测前按商品 id 读取最新的评分、评论数、
// 排名、库存等字段，补全调用方没有给出的值。离线特征与物化由 Feast 自身负责。
//
// 实现：
//   - GrpcClient：官方 Go SDK（github.com/feast-dev/feast/sdk/go）
//   - 测试中可以用任意实现替换
type Client interface {
	// GetOnlineFeatures 获取在线特征
	//
	// 参数：
	//   - features: 特征引用列表，例如 ["product_stats:rating", "product_stats:rank"]
	//   - entityRows: 实体行，例如 [{"product_id": "B0001"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	Features   []string
	EntityRows []map[string]interface{}
	// Project 项目名称（可选，默认使用客户端的项目）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应，FeatureVectors 与 EntityRows 一一对应
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 一个实体行的特征值，key 为特征引用
type FeatureVector struct {
	Values    map[string]interface{}
	EntityRow map[string]interface{}
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置，目前只支持 gRPC 静态 Token
type AuthConfig struct {
	Token     string
	EnableTLS bool
}

// WithTimeout 设置单次请求超时
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
