package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsRecordRouteTemplate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"1","name":"Kettle","price":"10.00","category":"1"}`))
	}))
	defer ts.Close()

	reader := sdkmetric.NewManualReader()
	m, err := metrics.NewAppMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"), "test")
	require.NoError(t, err)
	client := New(Options{BaseURL: ts.URL}, tokenstore.NewMemoryStore(), m)

	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		var p models.Product
		require.NoError(t, client.GetJSON(ctx, "/shop/products/"+id+"/", &p, WithRoute("/shop/products/{id}/")))
	}
	require.NoError(t, client.Delete(ctx, "/shop/categories/"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	routes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "http.client.request.count" {
				continue
			}
			for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
				route, _ := dp.Attributes.Value("http.route")
				routes[route.AsString()] += dp.Value
			}
		}
	}

	assert.Equal(t, map[string]int64{
		"/shop/products/{id}/": 3,
		"/shop/categories/":    1,
	}, routes)
}

func TestLogoutDuringRefreshStaysLoggedOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.server.RevokeAccessTokens()
	f.server.SetRefreshDelay(200 * time.Millisecond)

	go func() {
		time.Sleep(50 * time.Millisecond)
		f.tokens.Clear(ctx)
	}()

	err := f.client.GetJSON(ctx, "/auth/user/", &models.User{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, err, tokenstore.ErrSessionChanged)
	assert.EqualValues(t, 1, f.server.RefreshCount())

	pair, err := f.tokens.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TokenPair{}, pair)
}
