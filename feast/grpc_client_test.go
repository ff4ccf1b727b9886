package feast

import (
	"context"
	"errors"
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopsense/core"
)

type fakeClient struct {
	values map[string]interface{}
	err    error
	last   *GetOnlineFeaturesRequest
}

func (f *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &GetOnlineFeaturesResponse{
		FeatureVectors: []FeatureVector{{Values: f.values, EntityRow: req.EntityRows[0]}},
	}, nil
}

func (f *fakeClient) Close() error { return nil }

var productFeatures = map[string]string{
	"product_stats:rating":       FieldRating,
	"product_stats:review_count": FieldReviewCount,
	"product_stats:rank":         FieldRank,
	"inventory:stock":            FieldStock,
	"pricing:margin":             "margin",
}

func TestProductEnricher(t *testing.T) {
	client := &fakeClient{values: map[string]interface{}{
		"product_stats:rating":       4.7,
		"product_stats:review_count": float64(1500),
		"product_stats:rank":         "42",
		"inventory:stock":            int64(8),
		"pricing:margin":             0.35,
	}}
	e, err := NewProductEnricher(client, productFeatures, WithEntityKey("asin"), WithProject("shop"))
	require.NoError(t, err)

	got, err := e.Enrich(context.Background(), core.Product{ID: "B001", Rating: 3.9, Price: 20})
	require.NoError(t, err)

	assert.Equal(t, 3.9, got.Rating, "explicit values are kept")
	assert.Equal(t, 1500, got.ReviewCount)
	assert.Equal(t, 42, got.Rank)
	assert.Equal(t, 8, got.Stock)
	assert.Equal(t, 20.0, got.Price)
	assert.Equal(t, 0.35, got.Extra["margin"])

	require.NotNil(t, client.last)
	assert.Equal(t, "shop", client.last.Project)
	assert.Equal(t, []map[string]interface{}{{"asin": "B001"}}, client.last.EntityRows)
	assert.Len(t, client.last.Features, len(productFeatures))
}

func TestProductEnricherSkipsAnonymousProducts(t *testing.T) {
	client := &fakeClient{}
	e, err := NewProductEnricher(client, productFeatures)
	require.NoError(t, err)

	p := core.Product{Title: "no id"}
	got, err := e.Enrich(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Nil(t, client.last)
}

func TestProductEnricherError(t *testing.T) {
	client := &fakeClient{err: errors.New("unavailable")}
	e, err := NewProductEnricher(client, productFeatures)
	require.NoError(t, err)

	p := core.Product{ID: "B001", Rating: 4}
	got, err := e.Enrich(context.Background(), p)
	assert.Error(t, err)
	assert.Equal(t, p, got)
}

func TestNewProductEnricherValidation(t *testing.T) {
	_, err := NewProductEnricher(nil, productFeatures)
	assert.Error(t, err)
	_, err = NewProductEnricher(&fakeClient{}, nil)
	assert.Error(t, err)
}

func TestFromSDKValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  interface{}
	}{
		{name: "double", input: feastsdk.DoubleVal(4.5), want: 4.5},
		{name: "int64", input: feastsdk.Int64Val(120), want: float64(120)},
		{name: "string", input: feastsdk.StrVal("Electronics"), want: "Electronics"},
		{name: "unset double", input: feastsdk.DoubleVal(0), want: nil},
		{name: "plain float", input: 2.5, want: 2.5},
		{name: "nil", input: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fromSDKValue(tt.input))
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		host     string
		port     int
		wantErr  bool
	}{
		{endpoint: "localhost:6565", host: "localhost", port: 6565},
		{endpoint: "grpc://feast.internal:7000", host: "feast.internal", port: 7000},
		{endpoint: "feast.internal", host: "feast.internal", port: 0},
		{endpoint: ":6565", host: "localhost", port: 6565},
		{endpoint: "localhost:abc", wantErr: true},
		{endpoint: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			host, port, err := parseEndpoint(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
		})
	}
}
