package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/api"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	t.Setenv("STOREFRONT_API_URL", baseURL)
	t.Setenv("TOKEN_STORE_DRIVER", "sqlite")
	t.Setenv("TOKEN_STORE_PATH", filepath.Join(t.TempDir(), "session.db"))
	t.Setenv("OTEL_ENABLED", "false")
	return config.LoadConfig()
}

func TestBootstrapRestoresPersistedSession(t *testing.T) {
	server := api.NewDemoServer([]byte("k"), time.Minute)
	_, err := server.Backend().Register(models.RegisterRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	cfg := testConfig(t, ts.URL+"/api")
	ctx := context.Background()

	first, err := Bootstrap(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, first.Session.IsAuthenticated())
	require.NoError(t, first.Session.Login(ctx, "ada@example.com", "secret1"))
	require.NoError(t, first.Close(ctx))

	second, err := Bootstrap(ctx, cfg)
	require.NoError(t, err)
	defer second.Close(ctx)

	assert.True(t, second.Session.IsAuthenticated())
	user, err := second.Session.FetchProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestBootstrapMemoryStore(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/api")
	cfg.TokenStoreDriver = "memory"

	a, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, a.Cart)
	assert.NotNil(t, a.Orders)
	assert.NoError(t, a.Close(context.Background()))
	assert.NoError(t, a.Close(context.Background()))
}
