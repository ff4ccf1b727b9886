package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/shopsense/pkg/conv"
)

// DefaultGrpcPort Feast Serving 默认 gRPC 端口
const DefaultGrpcPort = 6565

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
//
// 设计原则：
//   - Client 接口与 SDK 类型隔离，调用方只看到 map[string]interface{}
//   - 每次请求带超时，在线特征库慢时预测链路不会被拖住
//
// 使用场景：
//   - ProductEnricher 在预测前读取商品的实时特征
type GrpcClient struct {
	client   *feastsdk.GrpcClient
	project  string
	endpoint string
	timeout  time.Duration
}

// NewGrpcClient 创建 Feast gRPC 客户端。port 为 0 时使用 6565。
func NewGrpcClient(host string, port int, project string, opts ...ClientOption) (*GrpcClient, error) {
	if port == 0 {
		port = DefaultGrpcPort
	}
	config := &ClientConfig{
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Project:  project,
		Timeout:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}

	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if config.Auth != nil && config.Auth.Token != "" {
		client, err = feastsdk.NewSecureGrpcClient(host, port, feastsdk.SecurityConfig{
			EnableTLS:  config.Auth.EnableTLS,
			Credential: feastsdk.NewStaticCredential(config.Auth.Token),
		})
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast: connect %s: %w", config.Endpoint, err)
	}

	return &GrpcClient{
		client:   client,
		project:  project,
		endpoint: config.Endpoint,
		timeout:  config.Timeout,
	}, nil
}

// Endpoint 服务端点
func (c *GrpcClient) Endpoint() string { return c.endpoint }

// GetOnlineFeatures 获取在线特征
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, fmt.Errorf("feast: features are required")
	}
	if len(req.EntityRows) == 0 {
		return nil, fmt.Errorf("feast: entity rows are required")
	}
	project := req.Project
	if project == "" {
		project = c.project
	}
	if project == "" {
		return nil, fmt.Errorf("feast: project is required")
	}

	entities := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entity := make(feastsdk.Row, len(row))
		for k, v := range row {
			setEntity(entity, k, v)
		}
		entities[i] = entity
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entities,
		Project:  project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, fmt.Errorf("feast: response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows))
	}
	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]interface{}, len(req.Features))
		for _, ref := range req.Features {
			val, ok := row[ref]
			if !ok {
				continue
			}
			if v := fromSDKValue(val); v != nil {
				values[ref] = v
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 官方 SDK 的连接由 gRPC 管理，这里只释放引用
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

// setEntity 把实体 key 转成 SDK 的值类型写入 row，商品 id 一般是字符串
func setEntity(row feastsdk.Row, key string, v interface{}) {
	switch val := v.(type) {
	case string:
		row[key] = feastsdk.StrVal(val)
	case int:
		row[key] = feastsdk.Int64Val(int64(val))
	case int64:
		row[key] = feastsdk.Int64Val(val)
	case int32:
		row[key] = feastsdk.Int64Val(int64(val))
	case float64:
		row[key] = feastsdk.DoubleVal(val)
	case float32:
		row[key] = feastsdk.FloatVal(val)
	case bool:
		row[key] = feastsdk.BoolVal(val)
	case []byte:
		row[key] = feastsdk.BytesVal(val)
	default:
		row[key] = feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

type (
	doubleValuer interface{ GetDoubleVal() float64 }
	floatValuer  interface{ GetFloatVal() float32 }
	int64Valuer  interface{ GetInt64Val() int64 }
	int32Valuer  interface{ GetInt32Val() int32 }
	stringValuer interface{ GetStringVal() string }
)

// fromSDKValue 把 SDK 的 protobuf 值转换为 float64 或 string。
// protobuf 的 getter 对未设置的字段返回零值，按 double → float → int64 → int32 → string
// 取第一个非零值；全为零时返回 nil（缺失）。
func fromSDKValue(val interface{}) interface{} {
	if val == nil {
		return nil
	}
	if v, ok := val.(doubleValuer); ok && v.GetDoubleVal() != 0 {
		return v.GetDoubleVal()
	}
	if v, ok := val.(floatValuer); ok && v.GetFloatVal() != 0 {
		return float64(v.GetFloatVal())
	}
	if v, ok := val.(int64Valuer); ok && v.GetInt64Val() != 0 {
		return float64(v.GetInt64Val())
	}
	if v, ok := val.(int32Valuer); ok && v.GetInt32Val() != 0 {
		return float64(v.GetInt32Val())
	}
	if v, ok := val.(stringValuer); ok && v.GetStringVal() != "" {
		return v.GetStringVal()
	}
	if f, ok := conv.ToFloat64(val); ok {
		return f
	}
	if s, ok := conv.ToString(val); ok {
		return s
	}
	return nil
}

var _ Client = (*GrpcClient)(nil)
