package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/db"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
)

const schema = `
-- one row per client profile
CREATE TABLE IF NOT EXISTS session_tokens (
	profile VARCHAR(64) NOT NULL PRIMARY KEY,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLStore keeps the token pair in a database/sql table.
type SQLStore struct {
	db      *db.DB
	metrics *metrics.AppMetrics
	profile string
	mu      sync.Mutex
}

// NewSQLStore creates the schema if needed. profile separates several
// accounts sharing one database.
func NewSQLStore(ctx context.Context, database *db.DB, m *metrics.AppMetrics, profile string) (*SQLStore, error) {
	if profile == "" {
		profile = "default"
	}
	if err := database.InitSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize token schema: %w", err)
	}
	return &SQLStore{db: database, metrics: m, profile: profile}, nil
}

func (s *SQLStore) Load(ctx context.Context) (models.TokenPair, error) {
	start := time.Now()

	query := "SELECT access_token, refresh_token FROM session_tokens WHERE profile = ?"
	var pair models.TokenPair
	err := s.db.QueryRowContext(ctx, query, s.profile).Scan(&pair.Access, &pair.Refresh)
	s.metrics.RecordStoreOp(ctx, "load", s.db.Driver(), start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return models.TokenPair{}, nil
	}
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to load tokens: %w", err)
	}
	return pair, nil
}

func (s *SQLStore) Save(ctx context.Context, pair models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, "save", pair)
}

func (s *SQLStore) Rotate(ctx context.Context, used string, next models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if used == "" || current.Refresh != used {
		return ErrSessionChanged
	}
	return s.replace(ctx, "rotate", rotated(used, next))
}

func (s *SQLStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	query := "DELETE FROM session_tokens WHERE profile = ?"
	_, err := s.db.ExecContext(ctx, query, s.profile)
	s.metrics.RecordStoreOp(ctx, "clear", s.db.Driver(), start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// replace swaps the profile row inside a transaction; the upsert syntax
// differs between sqlite and mysql.
func (s *SQLStore) replace(ctx context.Context, op string, pair models.TokenPair) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.metrics.RecordStoreOp(ctx, op, s.db.Driver(), start, false)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_tokens WHERE profile = ?", s.profile); err != nil {
		s.metrics.RecordStoreOp(ctx, op, s.db.Driver(), start, false)
		return fmt.Errorf("failed to replace tokens: %w", err)
	}

	insertQuery := "INSERT INTO session_tokens (profile, access_token, refresh_token, updated_at) VALUES (?, ?, ?, ?)"
	if _, err := tx.ExecContext(ctx, insertQuery, s.profile, pair.Access, pair.Refresh, time.Now().UTC()); err != nil {
		s.metrics.RecordStoreOp(ctx, op, s.db.Driver(), start, false)
		return fmt.Errorf("failed to store tokens: %w", err)
	}

	err = tx.Commit()
	s.metrics.RecordStoreOp(ctx, op, s.db.Driver(), start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
