package tokenstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/db"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStore(t *testing.T, path string) *SQLStore {
	t.Helper()
	ctx := context.Background()
	database, err := db.NewDB(ctx, "sqlite", path, "test")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store, err := NewSQLStore(ctx, database, metrics.NewNoop(), "")
	require.NoError(t, err)
	return store
}

func TestStores(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLStore(t, filepath.Join(t.TempDir(), "session.db")),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			pair, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, pair.Access)

			require.NoError(t, store.Save(ctx, models.TokenPair{Access: "a1", Refresh: "r1"}))
			pair, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.TokenPair{Access: "a1", Refresh: "r1"}, pair)

			require.NoError(t, store.Rotate(ctx, "r1", models.TokenPair{Access: "a2"}))
			pair, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.TokenPair{Access: "a2", Refresh: "r1"}, pair)

			require.NoError(t, store.Rotate(ctx, "r1", models.TokenPair{Access: "a3", Refresh: "r2"}))
			pair, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.TokenPair{Access: "a3", Refresh: "r2"}, pair)

			assert.ErrorIs(t, store.Rotate(ctx, "r1", models.TokenPair{Access: "stale"}), ErrSessionChanged)

			require.NoError(t, store.Clear(ctx))
			pair, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.TokenPair{}, pair)
		})
	}
}

func TestRotateAfterClearKeepsSessionEmpty(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLStore(t, filepath.Join(t.TempDir(), "session.db")),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, models.TokenPair{Access: "a1", Refresh: "r1"}))
			require.NoError(t, store.Clear(ctx))

			err := store.Rotate(ctx, "r1", models.TokenPair{Access: "a2"})
			assert.ErrorIs(t, err, ErrSessionChanged)

			pair, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.TokenPair{}, pair)
		})
	}
}

func TestSQLStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	first := newSQLStore(t, path)
	require.NoError(t, first.Save(ctx, models.TokenPair{Access: "a", Refresh: "r"}))

	second := newSQLStore(t, path)
	pair, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r", pair.Refresh)
}

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{TokenStoreDriver: "memory"}
	store, closeFn, err := Open(context.Background(), cfg, metrics.NewNoop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closeFn())
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := ExpiresAt(token)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = ExpiresAt("opaque-token")
	assert.False(t, ok)
	_, ok = ExpiresAt("")
	assert.False(t, ok)
}
