package tokenstore

import (
	"context"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/db"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/golang-jwt/jwt"
)

// Open builds the Store selected by cfg. The returned close func releases
// the database, if any.
func Open(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics) (Store, func() error, error) {
	driver, dsn := cfg.GetDriverAndDSN()
	if driver == "memory" {
		return NewMemoryStore(), func() error { return nil }, nil
	}

	database, err := db.NewDB(ctx, driver, dsn, cfg.OTELServiceName)
	if err != nil {
		return nil, nil, err
	}

	store, err := NewSQLStore(ctx, database, m, "default")
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return store, database.Close, nil
}

// ExpiresAt reads the exp claim of a JWT access token without verifying
// its signature. ok is false for opaque or malformed tokens.
func ExpiresAt(access string) (time.Time, bool) {
	if access == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(access, claims); err != nil {
		return time.Time{}, false
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}
