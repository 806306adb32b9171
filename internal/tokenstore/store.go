// Package tokenstore persists the bearer/refresh token pair between runs.
package tokenstore

import (
	"context"
	"errors"
	"sync"

	"github.com/SigNoz/storefront-go-client/internal/models"
)

// ErrSessionChanged is returned by Rotate when the stored refresh token is
// no longer the one the refresh was made with.
var ErrSessionChanged = errors.New("session changed during token refresh")

// Store holds the current token pair. Load returns an empty pair when
// nothing is stored.
type Store interface {
	Load(ctx context.Context) (models.TokenPair, error)
	Save(ctx context.Context, pair models.TokenPair) error
	// Rotate stores next only while used is still the stored refresh
	// token. An empty next.Refresh keeps used.
	Rotate(ctx context.Context, used string, next models.TokenPair) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	pair models.TokenPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (models.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, nil
}

func (s *MemoryStore) Save(_ context.Context, pair models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

func (s *MemoryStore) Rotate(_ context.Context, used string, next models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if used == "" || s.pair.Refresh != used {
		return ErrSessionChanged
	}
	s.pair = rotated(used, next)
	return nil
}

func rotated(used string, next models.TokenPair) models.TokenPair {
	if next.Refresh == "" {
		next.Refresh = used
	}
	return next
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = models.TokenPair{}
	return nil
}
