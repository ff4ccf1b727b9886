package feast

import (
	"fmt"
	"strconv"
	"strings"
)

// NewClient 根据端点地址创建客户端，支持 "localhost:6565" 与 "grpc://localhost:6565"。
func NewClient(endpoint, project string, opts ...ClientOption) (Client, error) {
	host, port, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return NewGrpcClient(host, port, project, opts...)
}

// parseEndpoint 解析端点地址，没有端口时 port 为 0
func parseEndpoint(endpoint string) (string, int, error) {
	endpoint = strings.TrimPrefix(strings.TrimSpace(endpoint), "grpc://")
	if endpoint == "" {
		return "", 0, fmt.Errorf("feast: empty endpoint")
	}
	host, portStr, found := strings.Cut(endpoint, ":")
	if !found {
		return endpoint, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("feast: invalid port in endpoint %q", endpoint)
	}
	if host == "" {
		host = "localhost"
	}
	return host, port, nil
}
